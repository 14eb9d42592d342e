package asset

import "fmt"

// InputError is returned when the asset id given to us is not an unsigned integer
type InputError struct {
	Input      string
	Underlying error
}

func (e InputError) Error() string {
	return fmt.Sprintf("Input [%s] is not a valid asset id: %v", e.Input, e.Underlying)
}

func (e InputError) Unwrap() error {
	return e.Underlying
}

// Unavailable is returned when the latest-version lookup for an asset
// comes back with an error payload or without any locations
type Unavailable struct {
	AssetId Id
	Reason  string
}

func (e Unavailable) Error() string {
	return fmt.Sprintf("Asset [%d] not found: %s", e.AssetId, e.Reason)
}

// TransportError wraps network, status and decoding failures when talking to
// a remote endpoint
type TransportError struct {
	Op         string
	URL        string
	Underlying error
}

func (e TransportError) Error() string {
	return fmt.Sprintf("Failed to %s [%s]: %v", e.Op, e.URL, e.Underlying)
}

func (e TransportError) Unwrap() error {
	return e.Underlying
}

// MissingHeader is returned when a content location does not report when it
// was last modified
type MissingHeader struct {
	URL    string
	Header string
}

func (e MissingHeader) Error() string {
	return fmt.Sprintf("Response from [%s] has no [%s] header", e.URL, e.Header)
}

// NoLocations is returned when a version's metadata is found but lists no
// content locations
type NoLocations struct {
	AssetId Id
	Version VersionNumber
}

func (e NoLocations) Error() string {
	return fmt.Sprintf("Version [%d] of asset [%d] has no content locations", e.Version, e.AssetId)
}

// ErrorPayload is an error payload from the metadata endpoint that does not look like the end
// of the version sequence
type ErrorPayload struct {
	Version    VersionNumber
	StatusCode int
	Payload    string
}

func (e ErrorPayload) Error() string {
	return fmt.Sprintf("Metadata for version [%d] came back with status [%d] and errors %s", e.Version, e.StatusCode, e.Payload)
}
