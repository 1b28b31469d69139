package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vertextoedge/diskguard/internal/domain"
	"github.com/vertextoedge/diskguard/internal/logger"
	"github.com/vertextoedge/diskguard/internal/port"
)

func newProbeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <path>",
		Short: "Print the usage of the volume holding path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !filepath.IsAbs(path) {
				return fmt.Errorf("path must be absolute: %s", path)
			}

			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			prober, _, err := newProber(cfg, log)
			if err != nil {
				return err
			}

			return printVolumeUsage(context.Background(), cmd.OutOrStdout(), prober, path,
				cfg.Watch.ExternalStorageRoot, cfg.Watch.ThresholdPercent)
		},
	}
}

// printVolumeUsage probes the volume root of path, the same path the
// monitor samples, and prints a summary.
func printVolumeUsage(ctx context.Context, out io.Writer, prober port.SpaceProbe, path, externalRoot string, threshold int) error {
	root := domain.ResolveVolumeRoot(path, externalRoot)
	info, err := prober.Probe(ctx, root)
	if err != nil {
		fmt.Fprintln(out, domain.UnknownStatus(root).Text())
		return err
	}

	fmt.Fprintf(out, "path:        %s\n", path)
	fmt.Fprintf(out, "volume root: %s\n", root)
	fmt.Fprintf(out, "total:       %s\n", domain.FormatBytes(info.TotalBytes))
	fmt.Fprintf(out, "free:        %s\n", domain.FormatBytes(info.FreeBytes))
	fmt.Fprintf(out, "used:        %s (%.1f%%)\n", domain.FormatBytes(info.UsedBytes), info.UsedPercentage)
	if threshold > 0 && info.OverThreshold(threshold) {
		fmt.Fprintf(out, "over threshold of %d%%\n", threshold)
	}
	return nil
}
