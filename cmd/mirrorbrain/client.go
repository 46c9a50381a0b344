package main

import (
	"context"
	"time"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/bridge"
	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/config"
	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/tools"
)

// connectBridge dials the configured bridge endpoint and returns a connected
// client. The caller owns Close.
func connectBridge(ctx context.Context, cfg *config.Config) (*bridge.Client, error) {
	timeout := time.Duration(cfg.Bridge.ExecuteTimeoutMS) * time.Millisecond
	client := bridge.NewClient(cfg.Bridge.Addr(), timeout)

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Connect(dialCtx); err != nil {
		return nil, err
	}
	return client, nil
}

// buildRegistry assembles the device tool set on top of a bridge client.
func buildRegistry(client *bridge.Client) *tools.Registry {
	registry := tools.NewRegistry()
	tools.RegisterDeviceTools(registry, client)
	return registry
}
