package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lloydmeta/assetversions/internal/infra/persistence/file"
	"github.com/lloydmeta/assetversions/internal/infra/sqlite"
)

var showFormat string

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.AddCommand(showConfigCmd)
	showCmd.AddCommand(showVersionsCmd)
	showConfigCmd.Flags().StringVar(&showFormat, "format", "json", "json or yaml")
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show information",
	Long:  `Sometimes you just need to know more`,
}

var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config",
	Long:  `Renders the config that we end up using`,
	Run: func(cmd *cobra.Command, args []string) {
		out, err := renderConfig(showFormat)
		if err != nil {
			log.Fatal().Err(err).Msg("Error rendering config")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	},
}

var showVersionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Show stored versions",
	Long:  `Renders the versions of an asset stored in the SQLite database, in the same format as the JSON file`,
	Run: func(cmd *cobra.Command, args []string) {
		if appConfig.Sqlite == nil {
			log.Fatal().Msg("No sqlite database configured")
		}
		assetId, err := resolveAssetId(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid asset id")
		}
		store, err := sqlite.Open(appConfig.Sqlite.Path)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open sqlite database")
		}
		defer store.Close()
		collection, err := store.Load(context.Background(), assetId)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load versions")
		}
		out, err := file.RenderJson(collection)
		if err != nil {
			log.Fatal().Err(err).Msg("Error marshalling versions to JSON")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	},
}

// renderConfig goes through JSON for YAML too, so both formats use the same keys
func renderConfig(format string) ([]byte, error) {
	asJson, err := json.MarshalIndent(&appConfig, "", "  ")
	if err != nil {
		return nil, err
	}
	switch format {
	case "json":
		return asJson, nil
	case "yaml":
		var generic interface{}
		if err := yaml.Unmarshal(asJson, &generic); err != nil {
			return nil, err
		}
		return yaml.Marshal(generic)
	default:
		return nil, fmt.Errorf("Unsupported format [%s]", format)
	}
}
