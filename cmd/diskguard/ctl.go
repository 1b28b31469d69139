package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/vertextoedge/diskguard/internal/config"
)

func newCtlCommand(configPath *string) *cobra.Command {
	ctl := &cobra.Command{
		Use:   "ctl",
		Short: "Send a command to a running daemon",
	}

	for _, action := range []string{"start", "stop"} {
		action := action
		ctl.AddCommand(&cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("Ask the daemon to %s monitoring", action),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.Load(*configPath)
				if err != nil {
					return err
				}
				body, err := postControl(cfg, action)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(body))
				return nil
			},
		})
	}
	return ctl
}

func postControl(cfg *config.Config, action string) (string, error) {
	url := fmt.Sprintf("http://%s/control/%s", cfg.HTTP.BindAddr, action)
	req, err := http.NewRequest(http.MethodPost, url, nil)
	if err != nil {
		return "", err
	}
	if cfg.HTTP.ControlPassword != "" {
		req.SetBasicAuth(cfg.HTTP.ControlUsername, cfg.HTTP.ControlPassword)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach daemon at %s: %w", cfg.HTTP.BindAddr, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s rejected: %s: %s", action, resp.Status, strings.TrimSpace(string(body)))
	}
	return string(body), nil
}
