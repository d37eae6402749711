package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"hookbridge/pkg/config"
	"hookbridge/pkg/logger"
	"hookbridge/pkg/relay"
	"hookbridge/pkg/source"
	"hookbridge/pkg/source/replay"

	"github.com/spf13/cobra"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run relay mode",
	Long:  "Runs HookBridge as an event relay with health and readiness endpoints.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

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

		appLogger, err := logger.New(cfg.Logging)
		if err != nil {
			fmt.Printf("failed to initialize logger: %v\n", err)
			return
		}
		slog.SetDefault(appLogger)
		log := slog.Default().With("component", "cmd.relay")

		sources, err := enabledSources(cfg, log)
		if err != nil {
			log.Error("Relay configuration invalid", "error", err)
			return
		}

		runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := relay.NewService(store, sources, log)
		if err != nil {
			log.Error("Failed to initialize relay service", "error", err)
			return
		}

		log.Info("Relay started", "sources", enabledSourceNames(sources), "prefix", cfg.Relay.TriggerPrefix())
		if err := svc.Run(runCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error("Relay runtime failed", "error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(relayCmd)
}

func enabledSources(cfg *config.Config, log *slog.Logger) ([]source.Source, error) {
	sources := make([]source.Source, 0, 1)

	if cfg.Sources.Replay.Enabled {
		adapter, err := replay.NewAdapter(cfg.Sources.Replay, log)
		if err != nil {
			return nil, fmt.Errorf("configure replay source: %w", err)
		}
		sources = append(sources, adapter)
	}

	if len(sources) == 0 {
		return nil, errors.New("no event sources are enabled")
	}

	return sources, nil
}

func enabledSourceNames(sources []source.Source) string {
	names := make([]string, 0, len(sources))
	for _, src := range sources {
		names = append(names, src.Name())
	}

	return strings.Join(names, ",")
}
