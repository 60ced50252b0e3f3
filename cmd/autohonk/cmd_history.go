package main

import (
	"fmt"
	"strconv"
	"time"

	"autohonk/internal/history"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var historyLimit int

// historyCmd prints recent honk sessions
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent honk sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()

		ctx := cmd.Context()
		entries, err := store.Recent(ctx, historyLimit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No sessions recorded yet.")
			return nil
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("STARTED", "SYSTEM", "KEY", "DURATION", "REASON", "BODIES")
		for _, e := range entries {
			t.Row(
				e.StartedAt.Local().Format(time.DateTime),
				e.System,
				e.Key,
				e.Duration.Round(100*time.Millisecond).String(),
				e.Reason,
				strconv.Itoa(e.BodyCount))
		}
		fmt.Fprintln(out, t.Render())

		sum, err := store.Summarize(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%d sessions: %d completed by scan, %d hit the cutoff, %d bodies found\n",
			sum.Sessions, sum.Cancelled, sum.Expired, sum.Bodies)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of sessions to show")
}
