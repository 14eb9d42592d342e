package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-openapi/swag"
	"go.elastic.co/apm/module/apmhttp"
	"golang.org/x/net/http2"

	"github.com/lloydmeta/assetversions/internal/config"
	"github.com/lloydmeta/assetversions/internal/domain/asset"
	"github.com/lloydmeta/assetversions/internal/domain/delivery"
)

var LastModifiedHeader = "Last-Modified"

// NewTransport returns an http.Transport tuned for many concurrent requests to a few hosts,
// speaking HTTP/2 where the remote allows it
func NewTransport() (*http.Transport, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   32, // every probe in a run goes to the same couple of hosts
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, err
	}
	return transport, nil
}

// NewHTTPClient returns an http.Client on a NewTransport, traced via APM
func NewHTTPClient(conf config.Delivery) (*http.Client, error) {
	transport, err := NewTransport()
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: apmhttp.WrapRoundTripper(transport),
		Timeout:   conf.RequestTimeout,
	}, nil
}

// Client implements both delivery.MetadataClient and delivery.LocationProber over HTTP
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewClient(conf config.Delivery, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    conf.BaseURL,
		userAgent:  swag.StringValue(conf.UserAgent),
		httpClient: httpClient,
	}
}

var _ delivery.MetadataClient = (*Client)(nil)
var _ delivery.LocationProber = (*Client)(nil)

func (c *Client) Fetch(ctx context.Context, assetId asset.Id, version *asset.VersionNumber) (*delivery.Metadata, error) {
	metadataURL := c.metadataURL(assetId, version)
	resp, err := c.do(ctx, http.MethodGet, metadataURL)
	if err != nil {
		return nil, asset.TransportError{Op: "fetch metadata", URL: metadataURL, Underlying: err}
	}
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, asset.TransportError{Op: "read metadata", URL: metadataURL, Underlying: err}
	}
	var metadata delivery.Metadata
	if err := json.Unmarshal(body, &metadata); err != nil {
		return nil, asset.TransportError{
			Op:         "decode metadata",
			URL:        metadataURL,
			Underlying: fmt.Errorf("status [%d], body [%s]: %w", resp.StatusCode, truncate(body, 256), err),
		}
	}
	metadata.StatusCode = resp.StatusCode
	return &metadata, nil
}

func (c *Client) ProbeLastModified(ctx context.Context, location string) (asset.Date, error) {
	resp, err := c.do(ctx, http.MethodHead, location)
	if err != nil {
		return "", asset.TransportError{Op: "probe location", URL: location, Underlying: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", asset.TransportError{
			Op:         "probe location",
			URL:        location,
			Underlying: fmt.Errorf("unexpected status [%d]", resp.StatusCode),
		}
	}
	lastModified := resp.Header.Get(LastModifiedHeader)
	if len(lastModified) == 0 {
		return "", asset.MissingHeader{URL: location, Header: LastModifiedHeader}
	}
	return asset.Date(lastModified), nil
}

func (c *Client) do(ctx context.Context, method string, target string) (*http.Response, error) {
	req, err := http.NewRequest(method, target, nil)
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")
	if len(c.userAgent) > 0 {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpClient.Do(req)
}

func (c *Client) metadataURL(assetId asset.Id, version *asset.VersionNumber) string {
	query := url.Values{}
	query.Set("id", assetId.String())
	if version != nil {
		query.Set("version", version.String())
	}
	return fmt.Sprintf("%s/asset?%s", c.baseURL, query.Encode())
}

func truncate(body []byte, max int) string {
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
