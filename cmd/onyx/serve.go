package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/config"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	httpapi "github.com/yvrah78/onyx-chauffeur-ai/internal/transport/http"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/transport/telegram"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/srv"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the concierge over HTTP and Telegram",
	Long:  `Starts the HTTP API and, when ENABLE_TELEGRAM is set, the Telegram bot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Str("version", core.AppVersion).Msg("starting onyx")

		app, err := NewApp(ctx, true)
		if err != nil {
			return err
		}

		var services []srv.Service
		if app.Config.EnableHTTP {
			services = append(services, httpapi.New(ctx, app.Config.HTTPAddr, app.HTTPDeps()))
		}
		if app.Config.EnableTelegram {
			bot, err := telegram.NewBot(ctx, config.NewTelegramConfig(ctx), app.Agent)
			if err != nil {
				app.Close(ctx)
				return err
			}
			services = append(services, bot)
		}
		if len(services) == 0 {
			logger.Warn().Msg("no transport enabled, set ENABLE_HTTP or ENABLE_TELEGRAM")
		}
		services = append(services, app.Closers()...)

		if err := srv.Run(ctx, services...); err != nil {
			return err
		}
		logger.Info().Msg("onyx has been shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
