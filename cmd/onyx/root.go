package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/config"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/service/ui"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "onyx",
	Short: "Onyx Chauffeur concierge and dispatch memory",
	Long: `Onyx runs the AI concierge of a chauffeur service: it answers clients over
HTTP, Telegram or the terminal and remembers every client and driver it deals with.`,
	SilenceUsage: true,
}

func Execute() {
	CustomizeHelp(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	return log.NewContextWithLogger(ctx, debug || config.IsDebug())
}

// setupStderrLogger is for commands that own stdout, like the MCP server.
func setupStderrLogger(ctx context.Context) (context.Context, func()) {
	return log.NewContextWithWriter(ctx, os.Stderr, debug || config.IsDebug())
}

func CustomizeHelp(rootCmd *cobra.Command) {
	cobra.AddTemplateFunc("StyleTitle", func(s string) string { return ui.TitleStyle.Render(s) })
	cobra.AddTemplateFunc("StyleUsage", func(s string) string { return ui.UsageStyle.Render(s) })
	cobra.AddTemplateFunc("StyleFlag", func(s string) string { return ui.FlagStyle.Render(s) })
	cobra.AddTemplateFunc("StyleDesc", func(s string) string { return ui.DescStyle.Render(s) })

	template := `
{{StyleTitle "USAGE"}}
  {{StyleUsage .UseLine}}
{{if gt (len .Commands) 0}}{{StyleTitle "AVAILABLE COMMANDS"}}
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding}} {{StyleDesc .Short}}{{end}}
{{end}}{{end}}
{{if .HasAvailableLocalFlags}}{{StyleTitle "FLAGS"}}
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces | StyleFlag}}
{{end}}
`
	rootCmd.SetHelpTemplate(template)
}
