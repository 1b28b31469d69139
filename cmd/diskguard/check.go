package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vertextoedge/diskguard/internal/adapter/privileged"
	"github.com/vertextoedge/diskguard/internal/logger"
)

func newCheckCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check <path>",
		Short: "Report what the privileged shell sees at path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if !cfg.Privilege.Enabled {
				return fmt.Errorf("privilege is disabled (privilege.enabled=false)")
			}
			runner, err := privileged.NewShellRunner(cfg.Privilege.Shell, cfg.Privilege.GetCommandTimeout(), log)
			if err != nil {
				return err
			}

			ctx := context.Background()
			cmds := privileged.NewCommands(runner, log)
			if !cmds.Available(ctx) {
				return fmt.Errorf("privileged shell %q is not available", cfg.Privilege.Shell)
			}

			path := args[0]
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "exists:             %t\n", cmds.PathExists(ctx, path))
			fmt.Fprintf(out, "readable directory: %t\n", cmds.IsReadableDirectory(ctx, path))
			fmt.Fprintf(out, "readable file:      %t\n", cmds.IsReadableFile(ctx, path))
			if entries := cmds.ListDirectory(ctx, path); entries != nil {
				fmt.Fprintf(out, "entries:            %d\n", len(entries))
			}
			return nil
		},
	}
}
