package run

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/assetversions/internal/domain/asset"
)

func TestFromDomainCollection_empty(t *testing.T) {
	collection := asset.NewCollection(5)
	asJson, err := json.Marshal(FromDomainCollection(&collection))
	assert.NoError(t, err)
	assert.JSONEq(t, `{"assetid":5,"versions":[]}`, string(asJson))
}
