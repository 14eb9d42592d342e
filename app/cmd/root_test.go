package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/lloydmeta/assetversions/internal/domain/asset"
	"github.com/lloydmeta/assetversions/internal/domain/delivery"
	"github.com/lloydmeta/assetversions/internal/domain/probe"
	"github.com/lloydmeta/assetversions/internal/domain/version"
	"github.com/lloydmeta/assetversions/internal/infra/apm/tracing"
)

func Test_initConfig(t *testing.T) {
	if wd, err := os.Getwd(); err != nil {
		t.Error(err)
	} else {
		configFile = wd + "/../../config/assetversions.example.yaml"
	}
	initConfig()
	assert.EqualValues(t, "passw0rd", appConfig.Elasticsearch.User.Password)
	assert.Equal(t, 150*time.Millisecond, appConfig.Probing.Interval)
	assert.EqualValues(t, 32, appConfig.Probing.MaxInFlight)
	assert.Equal(t, "out/versions.json", appConfig.Output.JsonPath)
	assert.Equal(t, "@every 1h", appConfig.Watch.Schedule)
	assert.Equal(t, 5*time.Second, appConfig.Server.ShutdownTimeout)

	settings := probeSettings(appConfig.Probing)
	assert.Equal(t, appConfig.Probing.Interval, settings.Interval)
	assert.EqualValues(t, 10, settings.MaxFailures)
}

func Test_promptAssetId(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      asset.Id
		wantInErr bool
	}{
		{"number", "1818\n", 1818, false},
		{"padded", "  42  \r\n", 42, false},
		{"no trailing newline", "7", 7, false},
		{"not a number", "abc\n", 0, true},
		{"negative", "-1\n", 0, true},
		{"nothing", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := promptAssetId(strings.NewReader(tt.input), &out)
			assert.Equal(t, "Please enter an asset id: ", out.String())
			if tt.wantInErr {
				var inputErr asset.InputError
				assert.True(t, errors.As(err, &inputErr))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func Test_resolveAssetId_flag(t *testing.T) {
	assetIdInput = "99"
	defer func() {
		assetIdInput = ""
	}()
	var out bytes.Buffer
	got, err := resolveAssetId(strings.NewReader("1\n"), &out)
	assert.NoError(t, err)
	assert.EqualValues(t, 99, got)
	assert.Empty(t, out.String())
}

func Test_renderConfig(t *testing.T) {
	appConfig.Output.JsonPath = "a.json"
	appConfig.Output.TextPath = "a.txt"

	asYaml, err := renderConfig("yaml")
	assert.NoError(t, err)
	var generic map[string]interface{}
	assert.NoError(t, yaml.Unmarshal(asYaml, &generic))
	assert.Equal(t, "a.json", generic["output"].(map[string]interface{})["json_path"])

	asJson, err := renderConfig("json")
	assert.NoError(t, err)
	assert.Contains(t, string(asJson), `"text_path": "a.txt"`)

	_, err = renderConfig("toml")
	assert.Error(t, err)
}

func Test_scanAsset_closesComponents(t *testing.T) {
	tests := []struct {
		name    string
		fetch   func(v *asset.VersionNumber) (*delivery.Metadata, error)
		persist func(collection asset.Collection) error
		wantErr interface{}
		wantOut string
	}{
		{
			name: "unavailable",
			fetch: func(v *asset.VersionNumber) (*delivery.Metadata, error) {
				return &delivery.Metadata{Errors: json.RawMessage(`[{"code":404}]`), StatusCode: 404}, nil
			},
			wantErr: &asset.Unavailable{},
		},
		{
			name: "persist failure",
			persist: func(collection asset.Collection) error {
				return errors.New("disk full")
			},
			wantErr: &probe.PersistFailed{},
			wantOut: "Took ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closed := 0
			settings := probe.DefaultSettings
			settings.Interval = time.Millisecond
			metadataClient := delivery.MockMetadataClient{FetchOverride: tt.fetch}
			sink := version.MockSink{PersistOverride: tt.persist}
			c := &components{
				scanner: probe.NewScanner(&metadataClient, &delivery.MockLocationProber{}, &sink, tracing.NoopTracer{}, settings),
				closers: []func() error{
					func() error {
						closed++
						return nil
					},
				},
			}
			var out bytes.Buffer
			err := scanAsset(context.Background(), &out, c, 1818)
			assert.True(t, errors.As(err, tt.wantErr))
			assert.Equal(t, 1, closed)
			assert.True(t, strings.HasPrefix(out.String(), tt.wantOut))
		})
	}
}
