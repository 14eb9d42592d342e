package asset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Id of a remotely hosted asset
type Id uint64

func (i Id) String() string {
	return strconv.FormatUint(uint64(i), 10)
}

// VersionNumber is a position in the probing sequence, starting at 1.
//
// It is not guaranteed to map 1:1 onto the remote's own revision numbering.
type VersionNumber uint32

func (v VersionNumber) String() string {
	return strconv.FormatUint(uint64(v), 10)
}

// Date is the Last-Modified value of a version's content, kept verbatim
type Date string

// Record is a discovered version; never mutated after creation
type Record struct {
	Version VersionNumber `json:"version"`
	Date    Date          `json:"date"`
}

// Collection holds every discovered Record for an asset, sorted ascending
// by version number and unique by version number
type Collection struct {
	AssetId  Id       `json:"assetid"`
	Versions []Record `json:"versions"`
}

// NewCollection returns an empty Collection for the given asset
func NewCollection(assetId Id) Collection {
	return Collection{
		AssetId:  assetId,
		Versions: []Record{},
	}
}

// Upsert adds the record, replacing any existing record with the same version,
// and leaves the Collection sorted.
func (c *Collection) Upsert(record Record) {
	for i, existing := range c.Versions {
		if existing.Version == record.Version {
			c.Versions[i] = record
			return
		}
	}
	c.Versions = append(c.Versions, record)
	sort.SliceStable(c.Versions, func(i, j int) bool {
		return c.Versions[i].Version < c.Versions[j].Version
	})
}

// Copy returns a deep copy
func (c *Collection) Copy() Collection {
	versions := make([]Record, len(c.Versions))
	copy(versions, c.Versions)
	return Collection{
		AssetId:  c.AssetId,
		Versions: versions,
	}
}

// ParseId parses a line of user input into an Id, returning an InputError
// if it is not an unsigned integer.
func ParseId(s string) (Id, error) {
	trimmed := strings.TrimSpace(s)
	parsed, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, InputError{Input: trimmed, Underlying: err}
	}
	return Id(parsed), nil
}

// TextHeader is the first line of the human-readable rendering
func (c *Collection) TextHeader() string {
	return fmt.Sprintf("Versions of: %d", c.AssetId)
}

// TextLine renders a single record for the human-readable rendering
func (r *Record) TextLine() string {
	return fmt.Sprintf("Version: %d, Date: %s", r.Version, r.Date)
}
