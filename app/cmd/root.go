package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-openapi/swag"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.elastic.co/apm"
	"go.elastic.co/apm/transport"

	"github.com/lloydmeta/assetversions/internal/config"
	"github.com/lloydmeta/assetversions/internal/domain/asset"
)

var (
	configFile   string
	assetIdInput string
	appConfig    config.App
	logFile      *os.File

	defaultConfigPaths = []string{
		".",
		"./config",
		"/app/config",
	}
	rootCmd = &cobra.Command{
		Use:   "assetversions",
		Short: "assetversions finds every version of an asset.",
		Long: `assetversions probes the asset delivery API for every version of an asset,
recording when each was last modified to a JSON and a text file`,
		Run: func(cmd *cobra.Command, args []string) {
			assetId, err := resolveAssetId(cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				log.Fatal().Err(err).Msg("Invalid asset id")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			components, err := newComponents(ctx, &appConfig)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to set up")
			}
			// log.Fatal exits without running defers, so scanAsset closes components itself
			if err := scanAsset(ctx, cmd.OutOrStdout(), components, assetId); err != nil {
				var unavailable asset.Unavailable
				if errors.As(err, &unavailable) {
					log.Fatal().Err(err).Uint64("asset_id", uint64(assetId)).Msg("Asset not found")
				} else {
					log.Fatal().Err(err).Uint64("asset_id", uint64(assetId)).Msg("Failed to scan asset")
				}
			}
		},
	}
)

// Executes the root command, which is to scan a single asset
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Send()
		closeLogFile()
		os.Exit(1)
	}
	defer closeLogFile()
}

func init() {
	cobra.OnInitialize(initConfig, configureLogging, configureApm)
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (by default, looks in [%v] for 'assetversions.yaml')", defaultConfigPaths))
	rootCmd.PersistentFlags().StringVar(&assetIdInput, "asset-id", "", "asset to look up; prompts for one if not given")
}

// scanAsset runs a single scan with the status server up for its duration, then closes components
func scanAsset(ctx context.Context, out io.Writer, components *components, assetId asset.Id) error {
	defer components.Close()
	serverCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()
	components.startServer(serverCtx)

	summary, err := components.scanner.Scan(ctx, assetId)
	if summary != nil {
		fmt.Fprintf(out, "Took %v to get %d versions\n", summary.Elapsed, len(summary.Collection.Versions))
	}
	return err
}

// resolveAssetId uses the --asset-id flag if given, otherwise asks for one on in
func resolveAssetId(in io.Reader, out io.Writer) (asset.Id, error) {
	if assetIdInput != "" {
		return asset.ParseId(assetIdInput)
	}
	return promptAssetId(in, out)
}

func promptAssetId(in io.Reader, out io.Writer) (asset.Id, error) {
	fmt.Fprint(out, "Please enter an asset id: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return 0, asset.InputError{Input: line, Underlying: err}
	}
	return asset.ParseId(line)
}

// initConfig reads the application config and sets it globally
func initConfig() {
	viper.AllowEmptyEnv(true)
	config.SetDefaults(viper.GetViper())
	if configFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("assetversions")
		for _, p := range defaultConfigPaths {
			viper.AddConfigPath(p)
		}
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Info().Msgf("Using config file: %v", viper.ConfigFileUsed())
	} else if _, notFound := err.(viper.ConfigFileNotFoundError); notFound && configFile == "" {
		log.Info().Msg("No config file found, using defaults")
	} else {
		log.Fatal().Err(err).Msg("Failed to read the config file")
	}

	// Unmarshal it, UnmarshalKey doesn't play well with Env vars, hence
	// the top level wrapping in order to do namespacing in the config file
	var t config.TopLevel
	if err := viper.Unmarshal(&t); err != nil {
		log.Error().Err(err).Send()
		closeLogFile()
		os.Exit(1)
	}
	if err := config.Validate(&t.AssetVersions); err != nil {
		log.Error().Err(err).Msg("Invalid config")
		closeLogFile()
		os.Exit(1)
	}
	appConfig = t.AssetVersions
}

// configureLogging configures the logger based on loaded config
// It assumes that the config has already been set and is non-nil
func configureLogging() {
	jsonLogging := false
	var file *string
	var level *zerolog.Level
	if appConfig.Logging != nil {
		jsonLogging = swag.BoolValue(appConfig.Logging.Json)
		file = appConfig.Logging.File
		if appConfig.Logging.Level != nil {
			parsedLevel, err := zerolog.ParseLevel(*appConfig.Logging.Level)
			if err != nil {
				log.Warn().
					Str("configured_level", *appConfig.Logging.Level).
					Str("will_use_level", zerolog.InfoLevel.String()).
					Msg("Invalid level configured, ignoring")
			} else {
				level = &parsedLevel
			}
		}
	}
	writeTo := os.Stderr // default
	if file != nil {
		f, err := os.OpenFile(*file, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open log file for writing.")
		}
		logFile = f
		writeTo = f
	}
	if !jsonLogging {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: writeTo})
	} else {
		log.Logger = log.Output(writeTo)
	}
	if level == nil {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(*level)
	}
}

func closeLogFile() {
	if logFile != nil {
		_ = logFile.Close()
	}
}

// configureApm configures APM by simply setting env vars if we override their
// values in our config
func configureApm() {
	if v := os.Getenv("ELASTIC_APM_SERVICE_NAME"); len(v) == 0 {
		if err := os.Setenv("ELASTIC_APM_SERVICE_NAME", "assetversions"); err != nil {
			log.Fatal().Err(err).Send()
		}
	}
	if appConfig.ApmClient != nil {
		apmConf := *appConfig.ApmClient
		log.Info().Str("address", swag.StringValue(apmConf.Address)).Msg("Configuring APM based on config file values")

		if apmConf.Address != nil {
			if err := os.Setenv("ELASTIC_APM_SERVER_URL", *apmConf.Address); err != nil {
				log.Fatal().Err(err).Send()
			}
		}
		if apmConf.SecretToken != nil {
			if err := os.Setenv("ELASTIC_APM_SECRET_TOKEN", *apmConf.SecretToken); err != nil {
				log.Fatal().Err(err).Send()
			}
		}
	}
	// re-init the global tracer
	tracerOptions := apm.TracerOptions{}
	apmTransport, err := transport.NewHTTPTransport()
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	tracerOptions.Transport = apmTransport
	if tracer, err := apm.NewTracerOptions(tracerOptions); err != nil {
		log.Fatal().Err(err).Send()
	} else {
		apm.DefaultTracer.Close()
		apm.DefaultTracer = tracer
	}
}
