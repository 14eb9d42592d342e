package run

import (
	"time"

	"github.com/lloydmeta/assetversions/internal/domain/asset"
	"github.com/lloydmeta/assetversions/internal/domain/probe"
)

// Status is how far along the latest run is
type Status struct {
	RunId       string    `json:"run_id"`
	AssetId     uint64    `json:"asset_id"`
	NextVersion uint32    `json:"next_version"`
	Stopped     bool      `json:"stopped"`
	InFlight    int32     `json:"in_flight"`
	Records     int       `json:"records"`
	StartedAt   time.Time `json:"started_at"`
}

// Version is a single discovered version
type Version struct {
	Version uint32 `json:"version"`
	Date    string `json:"date"`
}

// Versions has the same shape as the JSON file written by a run
type Versions struct {
	AssetId  uint64    `json:"assetid"`
	Versions []Version `json:"versions"`
}

func FromDomainStatus(s *probe.Status) Status {
	return Status{
		RunId:       string(s.RunId),
		AssetId:     uint64(s.AssetId),
		NextVersion: uint32(s.NextVersion),
		Stopped:     s.Stopped,
		InFlight:    s.InFlight,
		Records:     s.Records,
		StartedAt:   s.StartedAt,
	}
}

func FromDomainCollection(c *asset.Collection) Versions {
	versions := make([]Version, 0, len(c.Versions))
	for _, r := range c.Versions {
		versions = append(versions, Version{
			Version: uint32(r.Version),
			Date:    string(r.Date),
		})
	}
	return Versions{
		AssetId:  uint64(c.AssetId),
		Versions: versions,
	}
}
