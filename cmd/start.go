package cmd

import (
	"context"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/michaelpento.lv/arbbot/cmd/bot"
	"github.com/michaelpento.lv/arbbot/server"
	"github.com/michaelpento.lv/arbbot/utils"
)

const shutdownTimeout = 5 * time.Second

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the arbitrage bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := utils.GetLogger()
		defer utils.CleanupLogger()

		cfg, err := loadConfig()
		if err != nil {
			log.Error("Failed to load config", zap.Error(err))
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), unix.SIGINT, unix.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, log)
		if err != nil {
			log.Error("Failed to start bot", zap.Error(err))
			return err
		}
		defer a.Close()

		scheduler, err := bot.NewScheduler(a.bot, cfg.CycleInterval, log)
		if err != nil {
			return err
		}

		var srv *server.Server
		if cfg.Metrics.Enabled {
			srv, err = server.New(server.Config{
				Address:   cfg.Metrics.ListenAddress,
				Gatherer:  a.registry,
				Readiness: scheduler,
				Logger:    log,
			})
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Start(); err != nil {
					log.Error("Metrics server error", zap.Error(err))
				}
			}()
		}

		log.Info("Arbitrage bot started, press Ctrl+C to stop")
		err = scheduler.Run(ctx)
		log.Info("Shutting down gracefully...")

		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("Failed to stop metrics server", zap.Error(err))
			}
			cancel()
		}

		a.logSnapshot(log)
		return err
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
