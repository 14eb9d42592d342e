package version

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/lloydmeta/assetversions/internal/domain/asset"
	"github.com/lloydmeta/assetversions/internal/domain/version"
	"github.com/lloydmeta/assetversions/internal/infra/elasticsearch/common"
)

// EsSink is a version.Sink that keeps one document per asset version.
//
// Only records that changed since the last successful Persist are sent.
type EsSink struct {
	client *elasticsearch.Client
	index  common.IndexName

	mu      sync.Mutex
	indexed map[common.DocumentID]asset.Date

	getUTC func() time.Time
}

func NewSink(client *elasticsearch.Client, index common.IndexName) *EsSink {
	return &EsSink{
		client:  client,
		index:   index,
		indexed: make(map[common.DocumentID]asset.Date),
		getUTC: func() time.Time {
			return time.Now().UTC()
		},
	}
}

var _ version.Sink = (*EsSink)(nil)

type persistedVersion struct {
	AssetId   uint64    `json:"asset_id"`
	Version   uint32    `json:"version"`
	Date      string    `json:"date"`
	IndexedAt time.Time `json:"indexed_at"`
}

type bulkIndexOp struct {
	Index bulkIndexOpTarget `json:"index"`
}

type bulkIndexOpTarget struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

func BuildDocumentID(assetId asset.Id, v asset.VersionNumber) common.DocumentID {
	return common.DocumentID(fmt.Sprintf("%d-%d", assetId, v))
}

func (e *EsSink) Persist(ctx context.Context, collection asset.Collection) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pending := e.pending(collection)
	if len(pending) == 0 {
		return nil
	}
	body, err := e.buildBulkBody(collection.AssetId, pending)
	if err != nil {
		return err
	}
	bulkReq := esapi.BulkRequest{
		Body: bytes.NewReader(body),
	}
	rawResp, err := bulkReq.Do(ctx, e.client)
	if err != nil {
		return common.ElasticsearchErr{Underlying: err}
	}
	defer rawResp.Body.Close()
	if rawResp.IsError() {
		return common.UnexpectedEsStatusError(rawResp)
	}
	var resp common.EsBulkResponse
	if err := json.NewDecoder(rawResp.Body).Decode(&resp); err != nil {
		return common.JsonSerdesErr{Underlying: []error{err}}
	}

	var failures []string
	for _, item := range resp.Items {
		info := item.Info()
		if info.IsOk() {
			e.indexed[common.DocumentID(info.ID)] = pending[common.DocumentID(info.ID)].Date
		} else {
			reason := ""
			if info.Error != nil {
				reason = info.Error.Reason
			}
			failures = append(failures, fmt.Sprintf("%s: [%d] %s", info.ID, info.Status, reason))
		}
	}
	if len(failures) != 0 {
		return common.ElasticsearchErr{Underlying: fmt.Errorf("Failed to index versions %v", failures)}
	}
	return nil
}

func (e *EsSink) pending(collection asset.Collection) map[common.DocumentID]asset.Record {
	pending := make(map[common.DocumentID]asset.Record)
	for _, r := range collection.Versions {
		id := BuildDocumentID(collection.AssetId, r.Version)
		if date, ok := e.indexed[id]; !ok || date != r.Date {
			pending[id] = r
		}
	}
	return pending
}

func (e *EsSink) buildBulkBody(assetId asset.Id, pending map[common.DocumentID]asset.Record) ([]byte, error) {
	var buf bytes.Buffer
	now := e.getUTC()
	var errs []error
	for id, r := range pending {
		op := bulkIndexOp{Index: bulkIndexOpTarget{Index: string(e.index), ID: string(id)}}
		doc := persistedVersion{
			AssetId:   uint64(assetId),
			Version:   uint32(r.Version),
			Date:      string(r.Date),
			IndexedAt: now,
		}
		if err := writeNdJsonLine(&buf, op); err != nil {
			errs = append(errs, err)
		}
		if err := writeNdJsonLine(&buf, doc); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) != 0 {
		return nil, common.JsonSerdesErr{Underlying: errs}
	}
	return buf.Bytes(), nil
}

func writeNdJsonLine(buf *bytes.Buffer, v interface{}) error {
	asBytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(asBytes)
	buf.WriteByte('\n')
	return nil
}
