package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/bridge"
	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/config"
	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/device"
	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/logger"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Run the device-side bridge server",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
}

func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sim := device.NewSimulator()
	dispatcher := bridge.NewDispatcher()
	sim.RegisterHandlers(dispatcher)

	publisher := bridge.NewPublisher(cfg.Events.QueueSize)
	server := bridge.NewServer(cfg.Bridge, dispatcher, publisher)

	if cfg.Events.Simulate {
		source, err := device.NewEventSource(sim, publisher, cfg.Events)
		if err != nil {
			return err
		}
		go source.Run(ctx)
	}

	if err := server.Start(ctx); err != nil {
		return err
	}
	fmt.Printf("Bridge listening on %s (%d intents)\n", cfg.Bridge.Addr(), len(dispatcher.Intents()))

	<-ctx.Done()
	logger.InfoC("cli", "Shutting down")
	return nil
}
