package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/mcpserver"
)

func newMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Expose the device tools as an MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client, err := connectBridge(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			server, err := mcpserver.New(cfg.MCP.ServerName, buildRegistry(client))
			if err != nil {
				return err
			}
			return server.Run(ctx)
		},
	}
}
