package common

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"go.elastic.co/apm/module/apmelasticsearch"

	"github.com/lloydmeta/assetversions/internal/config"
)

// NewClient returns an elasticsearch.Client for conf, sending requests through the given
// transport (http.DefaultTransport if nil) wrapped for APM tracing
func NewClient(conf config.ElasticsearchClient, transport http.RoundTripper) (*elasticsearch.Client, error) {
	if transport == nil {
		transport = http.DefaultTransport
	}
	esClientConfig := elasticsearch.Config{
		Addresses: conf.Addresses,
		Transport: apmelasticsearch.WrapRoundTripper(transport),
	}
	if conf.User != nil {
		esClientConfig.Username = conf.User.Name
		esClientConfig.Password = conf.User.Password
	}
	return elasticsearch.NewClient(esClientConfig)
}
