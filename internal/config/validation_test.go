package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validApp() App {
	return App{
		Delivery: Delivery{
			BaseURL:        "https://assetdelivery.roblox.com/v2",
			RequestTimeout: 30 * time.Second,
		},
		Probing: Probing{
			Interval:    150 * time.Millisecond,
			MaxInFlight: 32,
			MaxFailures: 10,
		},
		Output: Output{
			JsonPath: "versions.json",
			TextPath: "versions.txt",
		},
		Watch: Watch{Schedule: "@every 1h"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(app *App)
		wantErr bool
	}{
		{
			name:   "valid",
			modify: func(app *App) {},
		},
		{
			name: "valid with optional sinks",
			modify: func(app *App) {
				app.Elasticsearch = &ElasticsearchClient{Addresses: []string{"http://localhost:9200"}, Index: "asset_versions"}
				app.Sqlite = &Sqlite{Path: "versions.db"}
				app.Server = &Server{BindAddress: ":8080", ShutdownTimeout: time.Second}
			},
		},
		{
			name: "base url is not a url",
			modify: func(app *App) {
				app.Delivery.BaseURL = "nope"
			},
			wantErr: true,
		},
		{
			name: "zero interval",
			modify: func(app *App) {
				app.Probing.Interval = 0
			},
			wantErr: true,
		},
		{
			name: "both outputs at the same path",
			modify: func(app *App) {
				app.Output.TextPath = app.Output.JsonPath
			},
			wantErr: true,
		},
		{
			name: "elasticsearch without addresses",
			modify: func(app *App) {
				app.Elasticsearch = &ElasticsearchClient{Index: "asset_versions"}
			},
			wantErr: true,
		},
		{
			name: "sqlite without path",
			modify: func(app *App) {
				app.Sqlite = &Sqlite{}
			},
			wantErr: true,
		},
		{
			name: "bad schedule",
			modify: func(app *App) {
				app.Watch.Schedule = "whenever"
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := validApp()
			tt.modify(&app)
			err := Validate(&app)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
