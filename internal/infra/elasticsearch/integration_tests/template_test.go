//go:build integration
// +build integration

package integration_tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lloydmeta/assetversions/internal/infra/elasticsearch/index"
)

func Test_DefaultTemplatesSetup_Run(t *testing.T) {
	subject := index.DefaultTemplateSetup(esClient, "template_test_versions")

	err := subject.Check(context.Background())
	assert.IsType(t, index.TemplatesNotInstalled{}, err)

	err = subject.RunIfNeeded(context.Background())
	assert.NoError(t, err)

	err = subject.Check(context.Background())
	assert.NoError(t, err)
}
