// MirrorBrain - brain/body bridge for Android devices
//
// The "body" is the device side: a bridge server in front of the device
// intents plus the event feed. The "brain" is the client side: the MCP
// server and the interactive console that drive the device through tools.

package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/config"
	"github.com/MirrorDNA-Reflection-Protocol/MirrorBrain-Mobile/pkg/logger"
)

var (
	version   = "dev"
	gitCommit string
)

var (
	configPath string
	debug      bool
)

func main() {
	root := &cobra.Command{
		Use:           "mirrorbrain",
		Short:         "Bridge between an AI brain and an Android body",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default ~/.mirrorbrain/config.json)")
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	root.AddCommand(
		newServeCommand(),
		newMCPCommand(),
		newChatCommand(),
		newEventsCommand(),
		newPingCommand(),
		newVersionCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			v := version
			if gitCommit != "" {
				v += fmt.Sprintf(" (git: %s)", gitCommit)
			}
			fmt.Printf("mirrorbrain %s\n", v)
			fmt.Printf("  Go: %s\n", runtime.Version())
		},
	}
}

// loadConfig reads the config file and applies the logging setup shared by
// every subcommand.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := logger.ParseLevel(cfg.Logging.Level)
	if debug {
		level = logger.DEBUG
	}
	logger.SetLevel(level)
	if cfg.Logging.File != "" {
		if err := logger.EnableFileLogging(cfg.Logging.File); err != nil {
			logger.WarnCF("cli", "File logging unavailable", map[string]any{"error": err.Error()})
		}
	}

	return cfg, nil
}
