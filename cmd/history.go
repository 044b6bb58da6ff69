package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/scoutcon/internal/history"
	"github.com/zjrosen/scoutcon/internal/ui/styles"
)

func newHistoryCmd(v *viper.Viper) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently executed console commands",
		Long: `List commands recorded by previous console sessions, newest first.

Each row shows when the command ran, the process it targeted (or "all" for
a broadcast), whether it succeeded, how long it took and the input line.`,
		Example: `  scoutcon history
  scoutcon history --limit 200`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if cfg.History.Path == "" {
				return fmt.Errorf("history.path is not set")
			}
			store, err := history.Open(cmd.Context(), cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "maximum number of commands to list")
	return cmd
}

func printHistory(w io.Writer, entries []history.Entry) {
	p := styles.New(w)
	if len(entries) == 0 {
		fmt.Fprintln(w, p.Muted.Render("No commands recorded."))
		return
	}
	for _, e := range entries {
		target := "all"
		if e.TargetPID != 0 {
			target = fmt.Sprintf("%d", e.TargetPID)
		}
		status := p.Success.Render("ok  ")
		if !e.Success {
			status = p.Error.Render("fail")
		}
		fmt.Fprintf(w, "%s  %-8s %s %8s  %s\n",
			p.Muted.Render(e.CreatedAt.Format(time.DateTime)),
			target,
			status,
			e.Duration.Round(time.Microsecond),
			e.Input,
		)
		if e.Error != "" {
			fmt.Fprintf(w, "    %s\n", p.Warning.Render(e.Error))
		}
	}
}
