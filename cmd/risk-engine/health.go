package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type healthOptions struct {
	url     string
	timeout time.Duration
}

func newHealthCmd(root *rootOptions) *cobra.Command {
	opts := &healthOptions{}
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe a running server's liveness and readiness",
		Long: `health requests /healthz and /readyz from a running server and fails
unless both answer with a 2xx status. It is suitable as a container health check.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := &http.Client{Timeout: opts.timeout}
			base := strings.TrimRight(opts.url, "/")

			results := map[string]map[string]any{}
			var failed []string
			for _, check := range []string{"healthz", "readyz"} {
				body, err := fetchHealth(client, base+"/"+check)
				if err != nil {
					failed = append(failed, fmt.Sprintf("%s: %v", check, err))
					body = map[string]any{"status": "unreachable", "error": err.Error()}
				}
				results[check] = body
			}

			if root.output == "json" || root.output == "yaml" {
				if err := printOutput(cmd.OutOrStdout(), root.output, results); err != nil {
					return err
				}
			} else {
				live, _ := results["healthz"]["status"].(string)
				uptime, _ := results["healthz"]["uptime"].(string)
				ready, _ := results["readyz"]["status"].(string)
				if err := printTable(cmd.OutOrStdout(), []string{"Check", "Status"}, [][]string{
					{"Liveness", live},
					{"Uptime", uptime},
					{"Readiness", ready},
				}); err != nil {
					return err
				}
			}

			if len(failed) > 0 {
				return fmt.Errorf("health check failed: %s", strings.Join(failed, "; "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.url, "url", "http://localhost:8080", "Base URL of the server")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "Request timeout")
	return cmd
}

func fetchHealth(client *http.Client, url string) (map[string]any, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, fmt.Errorf("status %d", resp.StatusCode)
	}
	return body, nil
}
