package delivery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/assetversions/internal/config"
	"github.com/lloydmeta/assetversions/internal/domain/asset"
)

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	conf := config.Delivery{BaseURL: server.URL + "/v2", RequestTimeout: 5 * time.Second}
	httpClient, err := NewHTTPClient(conf)
	if err != nil {
		t.Fatal(err)
	}
	return NewClient(conf, httpClient)
}

func TestClient_Fetch(t *testing.T) {
	var mu sync.Mutex
	var gotQueries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotQueries = append(gotQueries, r.URL.RawQuery)
		mu.Unlock()
		assert.Equal(t, "/v2/asset", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Query().Get("version") {
		case "":
			fmt.Fprint(w, `{"locations":[{"location":"https://cdn/latest"}],"requestId":"x"}`)
		case "1":
			fmt.Fprint(w, `{"locations":[{"location":"https://cdn/1"},{"location":"https://cdn/1b"}]}`)
		case "2":
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"errors":[{"code":404,"message":"Requested version does not exist"}]}`)
		default:
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, `<html>bad gateway</html>`)
		}
	}))
	defer server.Close()
	client := newTestClient(t, server)
	ctx := context.Background()

	latest, err := client.Fetch(ctx, 1818, nil)
	assert.NoError(t, err)
	assert.True(t, latest.Found())
	first, _ := latest.FirstLocation()
	assert.Equal(t, "https://cdn/latest", first)

	v1 := asset.VersionNumber(1)
	found, err := client.Fetch(ctx, 1818, &v1)
	assert.NoError(t, err)
	assert.True(t, found.Found())
	assert.Len(t, found.Locations, 2)
	assert.Equal(t, http.StatusOK, found.StatusCode)

	v2 := asset.VersionNumber(2)
	missing, err := client.Fetch(ctx, 1818, &v2)
	assert.NoError(t, err)
	assert.False(t, missing.Found())
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	v3 := asset.VersionNumber(3)
	_, err = client.Fetch(ctx, 1818, &v3)
	var transportErr asset.TransportError
	if assert.True(t, errors.As(err, &transportErr)) {
		assert.Equal(t, "decode metadata", transportErr.Op)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"id=1818", "id=1818&version=1", "id=1818&version=2", "id=1818&version=3"}, gotQueries)
}

func TestClient_Fetch_connectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client := newTestClient(t, server)
	server.Close()

	_, err := client.Fetch(context.Background(), 1, nil)
	var transportErr asset.TransportError
	if assert.True(t, errors.As(err, &transportErr)) {
		assert.Equal(t, "fetch metadata", transportErr.Op)
	}
}

func TestClient_ProbeLastModified(t *testing.T) {
	lastModified := "Wed, 21 Oct 2015 07:28:00 GMT"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Last-Modified", lastModified)
		case "/missing":
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer server.Close()
	client := newTestClient(t, server)
	ctx := context.Background()

	date, err := client.ProbeLastModified(ctx, server.URL+"/ok")
	assert.NoError(t, err)
	assert.EqualValues(t, lastModified, date)

	_, err = client.ProbeLastModified(ctx, server.URL+"/missing")
	var missingHeader asset.MissingHeader
	assert.True(t, errors.As(err, &missingHeader))

	_, err = client.ProbeLastModified(ctx, server.URL+"/forbidden")
	var transportErr asset.TransportError
	assert.True(t, errors.As(err, &transportErr))
}

func TestClient_userAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "assetversions-test", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{"locations":[]}`)
	}))
	defer server.Close()
	ua := "assetversions-test"
	conf := config.Delivery{BaseURL: server.URL, RequestTimeout: time.Second, UserAgent: &ua}
	httpClient, err := NewHTTPClient(conf)
	assert.NoError(t, err)
	_, err = NewClient(conf, httpClient).Fetch(context.Background(), 1, nil)
	assert.NoError(t, err)
}
