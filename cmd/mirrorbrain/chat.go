package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/config"
	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/orchestrator"
)

func newChatCommand() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive console driving the device through tools",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if provider != "" {
				cfg.Planner.Provider = provider
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := connectBridge(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			planner, err := buildPlanner(cfg.Planner)
			if err != nil {
				return err
			}

			repl := orchestrator.NewREPL(planner, buildRegistry(client))
			return repl.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&provider, "planner", "p", "", "Planner provider: keyword or claude (default from config)")
	return cmd
}

func buildPlanner(cfg config.PlannerConfig) (orchestrator.Planner, error) {
	switch cfg.Provider {
	case "", "keyword":
		return orchestrator.NewKeywordPlanner(), nil
	case "claude":
		return orchestrator.NewClaudePlanner(cfg)
	default:
		return nil, fmt.Errorf("unknown planner provider: %s", cfg.Provider)
	}
}
