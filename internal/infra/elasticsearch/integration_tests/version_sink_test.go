//go:build integration
// +build integration

package integration_tests

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/assetversions/internal/domain/asset"
	"github.com/lloydmeta/assetversions/internal/infra/elasticsearch/index"
	"github.com/lloydmeta/assetversions/internal/infra/elasticsearch/version"
)

func Test_EsSink_Persist(t *testing.T) {
	ctx := context.Background()
	templates := index.DefaultTemplateSetup(esClient, "sink_test_versions")
	if err := templates.Run(ctx); err != nil {
		t.Fatal(err)
	}
	subject := version.NewSink(esClient, "sink_test_versions")

	collection := asset.NewCollection(1818)
	collection.Upsert(asset.Record{Version: 2, Date: "Thu, 22 Oct 2015 07:28:00 GMT"})
	collection.Upsert(asset.Record{Version: 1, Date: "Wed, 21 Oct 2015 07:28:00 GMT"})
	assert.NoError(t, subject.Persist(ctx, collection))
	collection.Upsert(asset.Record{Version: 3, Date: "Fri, 23 Oct 2015 07:28:00 GMT"})
	assert.NoError(t, subject.Persist(ctx, collection))

	getReq := esapi.GetRequest{
		Index:      "sink_test_versions",
		DocumentID: string(version.BuildDocumentID(1818, 3)),
	}
	rawResp, err := getReq.Do(ctx, esClient)
	if err != nil {
		t.Fatal(err)
	}
	defer rawResp.Body.Close()
	assert.Equal(t, 200, rawResp.StatusCode)

	var doc struct {
		Source struct {
			AssetId uint64 `json:"asset_id"`
			Version uint32 `json:"version"`
			Date    string `json:"date"`
		} `json:"_source"`
	}
	assert.NoError(t, json.NewDecoder(rawResp.Body).Decode(&doc))
	assert.EqualValues(t, 1818, doc.Source.AssetId)
	assert.EqualValues(t, 3, doc.Source.Version)
	assert.Equal(t, "Fri, 23 Oct 2015 07:28:00 GMT", doc.Source.Date)

	refresh := esapi.IndicesRefreshRequest{Index: []string{"sink_test_versions"}}
	refreshResp, err := refresh.Do(ctx, esClient)
	if err != nil {
		t.Fatal(err)
	}
	refreshResp.Body.Close()
	countReq := esapi.CountRequest{Index: []string{"sink_test_versions"}}
	countResp, err := countReq.Do(ctx, esClient)
	if err != nil {
		t.Fatal(err)
	}
	defer countResp.Body.Close()
	var count struct {
		Count int `json:"count"`
	}
	assert.NoError(t, json.NewDecoder(countResp.Body).Decode(&count))
	assert.Equal(t, 3, count.Count)
}
