package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/transport/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve memory and concierge tools over MCP stdio",
	Long:  `Exposes memory search, history, notes and reply generation to MCP clients. Logs go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var flushLog func()
		ctx, flushLog = setupStderrLogger(ctx)
		defer flushLog()

		app, err := NewApp(ctx, true)
		if err != nil {
			return err
		}
		defer app.Close(ctx)

		// Listen returns once the client closes stdin.
		return mcp.NewServer(app.Memory, app.Dispatch, app.Agent).Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
