package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Measure round-trip latency to the bridge",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			client, err := connectBridge(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			latency, result, err := client.Ping(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Bridge at %s: %s (ready=%t)\n", cfg.Bridge.Addr(), latency.Round(time.Microsecond), result.Ready)
			return nil
		},
	}
}
