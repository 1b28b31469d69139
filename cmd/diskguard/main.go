package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "diskguard",
		Short:         "Keeps a storage volume under a usage threshold by deleting the oldest recordings",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (defaults and DISKGUARD_* environment when empty)")

	root.AddCommand(
		newRunCommand(&configPath),
		newProbeCommand(&configPath),
		newCheckCommand(&configPath),
		newCtlCommand(&configPath),
		newHistoryCommand(&configPath),
	)
	return root
}
