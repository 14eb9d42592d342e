package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/lloydmeta/assetversions/internal/config"
	"github.com/lloydmeta/assetversions/internal/domain/probe"
	"github.com/lloydmeta/assetversions/internal/domain/version"
	"github.com/lloydmeta/assetversions/internal/infra/apm/tracing"
	"github.com/lloydmeta/assetversions/internal/infra/delivery"
	"github.com/lloydmeta/assetversions/internal/infra/elasticsearch/common"
	"github.com/lloydmeta/assetversions/internal/infra/elasticsearch/index"
	esVersion "github.com/lloydmeta/assetversions/internal/infra/elasticsearch/version"
	"github.com/lloydmeta/assetversions/internal/infra/persistence/file"
	"github.com/lloydmeta/assetversions/internal/infra/server"
	"github.com/lloydmeta/assetversions/internal/infra/sqlite"
)

// components holds everything a scan needs, wired up from config
type components struct {
	scanner *probe.Scanner
	server  *server.Server // nil unless configured
	closers []func() error
}

func newComponents(ctx context.Context, conf *config.App) (*components, error) {
	var closers []func() error

	httpClient, err := delivery.NewHTTPClient(conf.Delivery)
	if err != nil {
		return nil, err
	}
	deliveryClient := delivery.NewClient(conf.Delivery, httpClient)

	sinks := version.MultiSink{file.NewWriter(afero.NewOsFs(), conf.Output)}

	if conf.Elasticsearch != nil {
		esTransport, err := delivery.NewTransport()
		if err != nil {
			return nil, err
		}
		esClient, err := common.NewClient(*conf.Elasticsearch, esTransport)
		if err != nil {
			return nil, err
		}
		versionsIndex := common.IndexName(conf.Elasticsearch.Index)
		templateSetup := index.DefaultTemplateSetup(esClient, versionsIndex)
		if err := templateSetup.RunIfNeeded(ctx); err != nil {
			return nil, err
		}
		log.Info().Str("index", string(versionsIndex)).Msg("Also persisting to Elasticsearch")
		sinks = append(sinks, esVersion.NewSink(esClient, versionsIndex))
	}

	if conf.Sqlite != nil {
		sqliteSink, err := sqlite.Open(conf.Sqlite.Path)
		if err != nil {
			return nil, err
		}
		closers = append(closers, sqliteSink.Close)
		log.Info().Str("path", conf.Sqlite.Path).Msg("Also persisting to SQLite")
		sinks = append(sinks, sqliteSink)
	}

	scanner := probe.NewScanner(deliveryClient, deliveryClient, sinks, tracing.NewTracer(), probeSettings(conf.Probing))

	var statusServer *server.Server
	if conf.Server != nil {
		statusServer = server.NewServer(*conf.Server, scanner)
	}

	return &components{
		scanner: scanner,
		server:  statusServer,
		closers: closers,
	}, nil
}

// startServer runs the status server, if there is one, until ctx is done
func (c *components) startServer(ctx context.Context) {
	if c.server == nil {
		return
	}
	go func() {
		if err := c.server.Start(ctx); err != nil {
			log.Error().Err(err).Msg("Status server failed")
		}
	}()
}

func (c *components) Close() {
	for _, closer := range c.closers {
		if err := closer(); err != nil {
			log.Error().Err(err).Msg("Failed to close")
		}
	}
}

func probeSettings(conf config.Probing) probe.Settings {
	return probe.Settings{
		Interval:         conf.Interval,
		MaxInFlight:      conf.MaxInFlight,
		MaxFailures:      conf.MaxFailures,
		StrictExhaustion: conf.StrictExhaustion,
	}
}
