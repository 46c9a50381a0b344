package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newEventsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Tail the live device event stream",
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

			clientID := "cli-" + uuid.New().String()[:8]
			events, err := client.StreamEvents(ctx, clientID)
			if err != nil {
				return err
			}

			fmt.Println("Streaming device events (Ctrl+C to stop)")
			for event := range events {
				payload, _ := json.Marshal(event.Payload)
				ts := time.UnixMilli(event.Timestamp).Format("15:04:05.000")
				fmt.Printf("%s  %-14s %s\n", ts, event.Type, payload)
			}
			return nil
		},
	}
}
