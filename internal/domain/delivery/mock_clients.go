package delivery

import (
	"context"
	"sync"

	"github.com/lloydmeta/assetversions/internal/domain/asset"
)

// MockMetadataClient is safe for concurrent use since probes call it from many goroutines
type MockMetadataClient struct {
	mu sync.Mutex

	FetchCalled    uint
	FetchedLatest  uint
	FetchedVersion []asset.VersionNumber
	FetchOverride  func(version *asset.VersionNumber) (*Metadata, error)
}

func (m *MockMetadataClient) Fetch(ctx context.Context, assetId asset.Id, version *asset.VersionNumber) (*Metadata, error) {
	m.mu.Lock()
	m.FetchCalled++
	if version == nil {
		m.FetchedLatest++
	} else {
		m.FetchedVersion = append(m.FetchedVersion, *version)
	}
	m.mu.Unlock()
	if m.FetchOverride != nil {
		return m.FetchOverride(version)
	} else {
		return &Metadata{Locations: []Location{{Location: "https://mock/location"}}, StatusCode: 200}, nil
	}
}

// Called returns a copy of the versions fetched so far
func (m *MockMetadataClient) Called() (uint, []asset.VersionNumber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	versions := make([]asset.VersionNumber, len(m.FetchedVersion))
	copy(versions, m.FetchedVersion)
	return m.FetchCalled, versions
}

type MockLocationProber struct {
	mu sync.Mutex

	ProbeCalled   uint
	ProbeOverride func(url string) (asset.Date, error)
}

func (m *MockLocationProber) ProbeLastModified(ctx context.Context, url string) (asset.Date, error) {
	m.mu.Lock()
	m.ProbeCalled++
	m.mu.Unlock()
	if m.ProbeOverride != nil {
		return m.ProbeOverride(url)
	} else {
		return "Wed, 21 Oct 2015 07:28:00 GMT", nil
	}
}
