package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/service/ui"
)

var (
	memoryLimit int
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and edit client and driver memory",
}

func kindArg(s string) (core.EntityType, error) {
	switch k := core.EntityType(s); k {
	case core.EntityClient, core.EntityDriver:
		return k, nil
	}
	return "", fmt.Errorf("kind must be %q or %q, got %q", core.EntityClient, core.EntityDriver, s)
}

// withApp opens storage without a completion provider and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(app *App) error) error {
	ctx, flushLog := setupLogger(cmd.Context())
	defer flushLog()

	app, err := NewApp(ctx, false)
	if err != nil {
		return err
	}
	defer app.Close(ctx)
	cmd.SetContext(ctx)
	return fn(app)
}

var memoryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show item counts of both indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *App) error {
			return printJSON(cmd.OutOrStdout(), app.Memory.Stats(cmd.Context()))
		})
	},
}

var memoryHistoryCmd = &cobra.Command{
	Use:   "history <client|driver> <id>",
	Short: "Show an entity's memory grouped by source",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := kindArg(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(app *App) error {
			ctx, out := cmd.Context(), cmd.OutOrStdout()
			if kind == core.EntityClient {
				h := app.Memory.ClientHistory(ctx, args[1], memoryLimit)
				printGroup(out, "Conversations", h.Conversations)
				printGroup(out, "Trips", h.Trips)
				printGroup(out, "Preferences", h.Preferences)
				return nil
			}
			h := app.Memory.DriverHistory(ctx, args[1], memoryLimit)
			printGroup(out, "Trips", h.Trips)
			printGroup(out, "Notes", h.Notes)
			printGroup(out, "Communications", h.Communications)
			return nil
		})
	},
}

var memorySearchCmd = &cobra.Command{
	Use:   "search <client|driver> <id> <query...>",
	Short: "Semantic search over one entity's memory",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := kindArg(args[0])
		if err != nil {
			return err
		}
		query := strings.Join(args[2:], " ")
		return withApp(cmd, func(app *App) error {
			var results []string
			if kind == core.EntityClient {
				results = app.Memory.FetchClientContext(cmd.Context(), args[1], query, memoryLimit)
			} else {
				results = app.Memory.FetchDriverContext(cmd.Context(), args[1], query, memoryLimit)
			}
			printGroup(cmd.OutOrStdout(), "Results", results)
			return nil
		})
	},
}

var memoryNoteCmd = &cobra.Command{
	Use:   "note <driver-id> <performance|availability|feedback|communication> <text...>",
	Short: "Add a dispatcher note to a driver",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *App) error {
			return app.Dispatch.AddDriverNote(cmd.Context(), args[0], strings.Join(args[2:], " "), args[1])
		})
	},
}

var memoryPreferenceCmd = &cobra.Command{
	Use:   "preference <client-id> <text...>",
	Short: "Add a preference to a client",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *App) error {
			return app.Dispatch.AddClientPreference(cmd.Context(), args[0], strings.Join(args[1:], " "))
		})
	},
}

var memoryPurgeCmd = &cobra.Command{
	Use:   "purge <client|driver> <id>",
	Short: "Delete everything memory holds for an entity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := kindArg(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(app *App) error {
			if kind == core.EntityClient {
				app.Memory.DeleteClientMemory(cmd.Context(), args[1])
			} else {
				app.Memory.DeleteDriverMemory(cmd.Context(), args[1])
			}
			return nil
		})
	},
}

func printGroup(w io.Writer, title string, items []string) {
	fmt.Fprintln(w, ui.TitleStyle.Render(title))
	if len(items) == 0 {
		fmt.Fprintln(w, ui.DescStyle.Render("  (none)"))
		return
	}
	for _, item := range items {
		fmt.Fprintf(w, "  • %s\n", strings.ReplaceAll(item, "\n", "\n    "))
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	memoryCmd.PersistentFlags().IntVarP(&memoryLimit, "limit", "n", 5, "maximum entries per group")
	memoryCmd.AddCommand(memoryStatsCmd, memoryHistoryCmd, memorySearchCmd, memoryNoteCmd, memoryPreferenceCmd, memoryPurgeCmd)
	rootCmd.AddCommand(memoryCmd)
}
