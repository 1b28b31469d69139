package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/vertextoedge/diskguard/internal/adapter/sqlite"
	"github.com/vertextoedge/diskguard/internal/logger"
	"go.uber.org/multierr"
)

func newHistoryCommand(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent status samples and reclaim passes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, _, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if !cfg.History.Enabled {
				return fmt.Errorf("history is disabled (history.enabled=false)")
			}

			store, err := sqlite.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, store.Close()) }()

			records, err := store.RecentReclaimRecords(limit)
			if err != nil {
				return err
			}
			samples, err := store.RecentStatusSamples(limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FINISHED\tDIRECTORY\tDELETED\tFAILED\tUSAGE\tSATISFIED")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d\t%.1f%% -> %.1f%%\t%t\n",
					r.FinishedAt.Format(time.RFC3339), r.Directory,
					r.DeletedCount, r.Candidates, r.FailedCount,
					r.StartPercentage, r.EndPercentage, r.Satisfied)
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "RECORDED\tVOLUME\tUSAGE")
			for _, s := range samples {
				usage := "unknown"
				if s.Known {
					usage = fmt.Sprintf("%.1f%%", s.UsedPercentage)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.RecordedAt.Format(time.RFC3339), s.Path, usage)
			}
			if len(records) == 0 && len(samples) == 0 {
				fmt.Fprintln(w, "no history yet")
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum rows per table")
	return cmd
}
