package delivery

import (
	"context"
	"encoding/json"

	"github.com/lloydmeta/assetversions/internal/domain/asset"
)

// Location is a single place the content of a version can be downloaded from
type Location struct {
	Location string `json:"location"`
}

// Metadata is what the metadata endpoint tells us about an asset version.
//
// Errors is kept raw because we only ever care whether it is present; a JSON null is kept as
// the literal "null".
type Metadata struct {
	Errors     json.RawMessage `json:"errors,omitempty"`
	Locations  []Location      `json:"locations"`
	StatusCode int             `json:"-"`
}

// Found returns true if the response had no errors field at all. An errors field counts even
// when it is null.
func (m *Metadata) Found() bool {
	return len(m.Errors) == 0
}

// FirstLocation returns the first candidate content location, if there is one
func (m *Metadata) FirstLocation() (string, bool) {
	if len(m.Locations) == 0 {
		return "", false
	}
	return m.Locations[0].Location, true
}

// MetadataClient looks up asset metadata.
type MetadataClient interface {

	// Fetch returns the metadata for the given version of an asset, or the latest one if
	// version is nil.
	//
	// An error payload from the remote is not an error here; it is reported via Metadata.Found.
	// Errors returned are asset.TransportError
	Fetch(ctx context.Context, assetId asset.Id, version *asset.VersionNumber) (*Metadata, error)
}

// LocationProber reads metadata about a content location without downloading it
type LocationProber interface {

	// ProbeLastModified returns the Last-Modified header of the given url verbatim.
	//
	// Returns asset.MissingHeader if absent, asset.TransportError on other failures
	ProbeLastModified(ctx context.Context, url string) (asset.Date, error)
}
