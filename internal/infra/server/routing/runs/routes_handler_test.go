package runs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/assetversions/internal/api/models/common"
	"github.com/lloydmeta/assetversions/internal/api/models/run"
)

type mockRunsController struct {
	statusCalled    uint
	statusOverride  func() (*run.Status, *common.ApiError)
	versionsCalled  uint
	versionOverride func() (*run.Versions, *common.ApiError)
}

func (m *mockRunsController) Status() (*run.Status, *common.ApiError) {
	m.statusCalled++
	if m.statusOverride != nil {
		return m.statusOverride()
	}
	return &run.Status{RunId: "run", AssetId: 1818, NextVersion: 3, Records: 2}, nil
}

func (m *mockRunsController) Versions() (*run.Versions, *common.ApiError) {
	m.versionsCalled++
	if m.versionOverride != nil {
		return m.versionOverride()
	}
	return &run.Versions{AssetId: 1818, Versions: []run.Version{{Version: 1, Date: "a"}}}, nil
}

func setupRouter() (*gin.Engine, *mockRunsController) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	mockController := mockRunsController{}
	handler := RoutesHandler{Controller: &mockController}
	handler.RegisterRoutes(engine.Group(""))
	return engine, &mockController
}

func performRequest(r http.Handler, method, url string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStatus_Ok(t *testing.T) {
	router, mockController := setupRouter()
	resp := performRequest(router, http.MethodGet, "/status")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, mockController.statusCalled)
	var status run.Status
	if err := json.Unmarshal(resp.Body.Bytes(), &status); err != nil {
		t.Error(err)
	}
	assert.Equal(t, "run", status.RunId)
	assert.EqualValues(t, 3, status.NextVersion)
}

func TestStatus_NoRun(t *testing.T) {
	router, mockController := setupRouter()
	mockController.statusOverride = func() (*run.Status, *common.ApiError) {
		return nil, &common.ApiError{StatusCode: http.StatusNotFound, Body: common.Body{Message: "nope"}}
	}
	resp := performRequest(router, http.MethodGet, "/status")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.JSONEq(t, `{"message":"nope"}`, resp.Body.String())
}

func TestVersions_Ok(t *testing.T) {
	router, mockController := setupRouter()
	resp := performRequest(router, http.MethodGet, "/versions")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, 1, mockController.versionsCalled)
	assert.JSONEq(t, `{"assetid":1818,"versions":[{"version":1,"date":"a"}]}`, resp.Body.String())
}

func TestVersions_NoRun(t *testing.T) {
	router, mockController := setupRouter()
	mockController.versionOverride = func() (*run.Versions, *common.ApiError) {
		return nil, &common.ApiError{StatusCode: http.StatusNotFound, Body: common.Body{Message: "nope"}}
	}
	resp := performRequest(router, http.MethodGet, "/versions")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
