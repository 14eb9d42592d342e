package run

import (
	"net/http"

	"github.com/lloydmeta/assetversions/internal/api/models/common"
	"github.com/lloydmeta/assetversions/internal/api/models/run"
	"github.com/lloydmeta/assetversions/internal/domain/asset"
	"github.com/lloydmeta/assetversions/internal/domain/probe"
)

// RunsView gives read access to the latest run. *probe.Scanner satisfies it
type RunsView interface {
	LatestStatus() (*probe.Status, bool)
	LatestVersions() (*asset.Collection, bool)
}

// Controller is an interface that defines the methods that are available to the routing
// layer. It is framework-agnostic
type Controller interface {

	// Status returns the progress of the latest run
	Status() (*run.Status, *common.ApiError)

	// Versions returns what the latest run has recorded so far
	Versions() (*run.Versions, *common.ApiError)
}

func New(view RunsView) Controller {
	return &impl{view: view}
}

type impl struct {
	view RunsView
}

var noRunErr = common.ApiError{
	StatusCode: http.StatusNotFound,
	Body: common.Body{
		Message: "No run has started yet.",
	},
}

func (c *impl) Status() (*run.Status, *common.ApiError) {
	status, ok := c.view.LatestStatus()
	if !ok {
		return nil, &noRunErr
	}
	s := run.FromDomainStatus(status)
	return &s, nil
}

func (c *impl) Versions() (*run.Versions, *common.ApiError) {
	collection, ok := c.view.LatestVersions()
	if !ok {
		return nil, &noRunErr
	}
	v := run.FromDomainCollection(collection)
	return &v, nil
}
