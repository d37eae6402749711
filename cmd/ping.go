package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"hookbridge/pkg/config"
	"hookbridge/pkg/webhook"

	"github.com/spf13/cobra"
)

var pingURL string

// pingCmd sends the synthetic test payload for ad hoc connectivity checks.
var pingCmd = &cobra.Command{
	Use:   "ping [url]",
	Short: "Send a test payload to webhook destinations",
	Long:  "Loads HookBridge configuration and sends a synthetic test payload to one URL or to every configured destination.",
	Run: func(cmd *cobra.Command, args []string) {
		target := resolvePingURL(args, pingURL)

		store, err := config.NewStore()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		cfg, err := store.Snapshot()
		if err != nil {
			fmt.Printf("failed to load config: %v\n", err)
			return
		}

		registry := webhook.NewRegistry(store, slog.Default())
		dispatcher := webhook.NewDispatcher(registry, slog.Default())
		ctx := context.Background()

		if target != "" {
			result := dispatcher.TestSend(ctx, target, cfg.Relay.SharedSecret)
			fmt.Println(formatResult(result))
			return
		}

		set, err := registry.Resolve()
		if err != nil {
			fmt.Printf("failed to resolve destinations: %v\n", err)
			return
		}
		if len(set.Destinations) == 0 {
			fmt.Println("no destinations configured")
			return
		}

		for _, destination := range set.Destinations {
			result := dispatcher.TestSend(ctx, destination.URL, set.Secret)
			result.Destination = destination.Name
			fmt.Println(formatResult(result))
		}
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().StringVarP(&pingURL, "url", "u", "", "destination URL to test instead of the configured set")
}

func resolvePingURL(args []string, flagValue string) string {
	if value := strings.TrimSpace(flagValue); value != "" {
		return value
	}

	if len(args) == 0 {
		return ""
	}

	return strings.TrimSpace(args[0])
}

func formatResult(result webhook.Result) string {
	if result.Success {
		return fmt.Sprintf("%s: ok (%d) %s", result.Destination, result.StatusCode, result.URL)
	}

	if result.StatusCode > 0 {
		return fmt.Sprintf("%s: failed (%d) %s: %s", result.Destination, result.StatusCode, result.URL, result.Error)
	}

	return fmt.Sprintf("%s: failed %s: %s", result.Destination, result.URL, result.Error)
}
