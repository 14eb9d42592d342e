package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lloydmeta/assetversions/internal/infra/delivery"
	"github.com/lloydmeta/assetversions/internal/infra/elasticsearch/common"
	"github.com/lloydmeta/assetversions/internal/infra/elasticsearch/index"
	"github.com/lloydmeta/assetversions/internal/infra/sqlite"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run assetversions setup",
	Long:  "Installs the Elasticsearch index template and creates the SQLite schema, for whichever of the two are configured",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		if appConfig.Elasticsearch == nil && appConfig.Sqlite == nil {
			log.Info().Msg("Neither Elasticsearch nor SQLite is configured, nothing to set up.")
			return
		}

		if appConfig.Elasticsearch != nil {
			esTransport, err := delivery.NewTransport()
			if err != nil {
				log.Fatal().Err(err).Msg("Could not setup Elasticsearch transport")
			}
			esClient, err := common.NewClient(*appConfig.Elasticsearch, esTransport)
			if err != nil {
				log.Fatal().Err(err).Msg("Could not setup Elasticsearch client")
			}
			log.Info().Msg("Setting up Index templates")
			templatesSetup := index.DefaultTemplateSetup(esClient, common.IndexName(appConfig.Elasticsearch.Index))
			if err := templatesSetup.Run(ctx); err != nil {
				log.Fatal().Err(err).Msg("Failed to install index templates")
			}
		}

		if appConfig.Sqlite != nil {
			log.Info().Str("path", appConfig.Sqlite.Path).Msg("Setting up SQLite schema")
			store, err := sqlite.Open(appConfig.Sqlite.Path)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to set up SQLite")
			}
			_ = store.Close()
		}
		log.Info().Msg("Setup complete.")
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
