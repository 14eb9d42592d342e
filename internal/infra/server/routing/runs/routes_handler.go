package runs

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lloydmeta/assetversions/internal/api/controllers/run"
	"github.com/lloydmeta/assetversions/internal/infra/server/routing"
)

type RoutesHandler struct {
	Controller run.Controller
}

func (h *RoutesHandler) RegisterRoutes(routerGroup *gin.RouterGroup) {
	routerGroup.GET("/status", h.status)
	routerGroup.GET("/versions", h.versions)
}

// @Summary Status of the latest run
// @ID get-status
// @Tags runs
// @Description Reports how far along the latest run is: next version, in-flight probes and records so far
// @Produce  json
// @Success 200 {object} run.Status
// @Failure 404 {object} common.Body "No run has started yet"
// @Router /status [get]
func (h *RoutesHandler) status(c *gin.Context) {
	if status, err := h.Controller.Status(); err != nil {
		routing.HandleApiErr(c, err)
	} else {
		c.JSON(http.StatusOK, status)
	}
}

// @Summary Versions recorded by the latest run
// @ID get-versions
// @Tags runs
// @Description Returns the versions recorded so far, in the same shape as the JSON output file
// @Produce  json
// @Success 200 {object} run.Versions
// @Failure 404 {object} common.Body "No run has started yet"
// @Router /versions [get]
func (h *RoutesHandler) versions(c *gin.Context) {
	if versions, err := h.Controller.Versions(); err != nil {
		routing.HandleApiErr(c, err)
	} else {
		c.JSON(http.StatusOK, versions)
	}
}
