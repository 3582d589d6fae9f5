package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/transport/cli"
)

var chatPhone string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the concierge from the terminal as a client",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		app, err := NewApp(ctx, true)
		if err != nil {
			return err
		}
		defer app.Close(ctx)

		rl, err := cli.NewReadLine(app.Agent, app.Config.GetRuntimePath(), chatPhone)
		if err != nil {
			return err
		}
		defer rl.Shutdown(ctx)

		return rl.Start(ctx)
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatPhone, "phone", "p", "+1-555-0000", "phone number to chat as")
	rootCmd.AddCommand(chatCmd)
}
