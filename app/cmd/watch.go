package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lloydmeta/assetversions/internal/domain/probe"
	"github.com/lloydmeta/assetversions/internal/infra/cron/scan"
)

var scanImmediately bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Scan an asset on a schedule",
	Long:  "Runs a fresh scan of the asset every time watch.schedule fires, until interrupted. A scan that is still running when the schedule fires again is not overlapped.",
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
		defer components.Close()
		components.startServer(ctx)

		scheduler := scan.NewScheduler(components.scanner)
		if err := scheduler.Schedule(assetId, probe.ScheduleExpression(appConfig.Watch.Schedule)); err != nil {
			components.Close()
			log.Fatal().Err(err).Msg("Failed to schedule scans")
		}
		scheduler.Start()

		if scanImmediately {
			if err := scheduler.RunNow(assetId); err != nil {
				log.Error().Err(err).Uint64("asset_id", uint64(assetId)).Msg("Failed to start initial scan")
			}
		}

		<-ctx.Done()
		log.Info().Msg("Stopping, waiting for any running scan to finish")
		<-scheduler.Stop().Done()
	},
}

func init() {
	watchCmd.Flags().BoolVar(&scanImmediately, "immediately", true, "scan once right away instead of waiting for the schedule to fire")
	rootCmd.AddCommand(watchCmd)
}
