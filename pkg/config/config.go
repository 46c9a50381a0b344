package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Bridge  BridgeConfig  `json:"bridge"`
	Events  EventsConfig  `json:"events"`
	Planner PlannerConfig `json:"planner"`
	MCP     MCPConfig     `json:"mcp"`
	Logging LoggingConfig `json:"logging"`
}

// BridgeConfig configures both the service endpoint and client behavior.
type BridgeConfig struct {
	Host             string `json:"host" env:"MIRRORBRAIN_BRIDGE_HOST"`
	Port             int    `json:"port" env:"MIRRORBRAIN_BRIDGE_PORT"`
	MaxWorkers       int    `json:"max_workers" env:"MIRRORBRAIN_BRIDGE_MAX_WORKERS"`
	ExecuteTimeoutMS int    `json:"execute_timeout_ms" env:"MIRRORBRAIN_BRIDGE_EXECUTE_TIMEOUT_MS"`
}

// Addr returns the host:port the bridge listens on (and clients dial).
func (c BridgeConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type EventsConfig struct {
	QueueSize   int    `json:"queue_size" env:"MIRRORBRAIN_EVENTS_QUEUE_SIZE"`
	CadenceMS   int    `json:"cadence_ms" env:"MIRRORBRAIN_EVENTS_CADENCE_MS"`
	BatteryCron string `json:"battery_cron" env:"MIRRORBRAIN_EVENTS_BATTERY_CRON"`
	Simulate    bool   `json:"simulate" env:"MIRRORBRAIN_EVENTS_SIMULATE"`
}

type PlannerConfig struct {
	Provider string `json:"provider" env:"MIRRORBRAIN_PLANNER_PROVIDER"`
	Model    string `json:"model" env:"MIRRORBRAIN_PLANNER_MODEL"`
	APIKey   string `json:"api_key" env:"MIRRORBRAIN_PLANNER_API_KEY"`
	BaseURL  string `json:"base_url" env:"MIRRORBRAIN_PLANNER_BASE_URL"`
}

type MCPConfig struct {
	ServerName string `json:"server_name" env:"MIRRORBRAIN_MCP_SERVER_NAME"`
}

type LoggingConfig struct {
	Level string `json:"level" env:"MIRRORBRAIN_LOG_LEVEL"`
	File  string `json:"file" env:"MIRRORBRAIN_LOG_FILE"`
}

func DefaultConfig() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Host:             "127.0.0.1",
			Port:             50051,
			MaxWorkers:       10,
			ExecuteTimeoutMS: 10000,
		},
		Events: EventsConfig{
			QueueSize:   64,
			CadenceMS:   500,
			BatteryCron: "* * * * *",
			Simulate:    true,
		},
		Planner: PlannerConfig{
			Provider: "keyword",
			Model:    "claude-sonnet-4.6",
		},
		MCP: MCPConfig{
			ServerName: "mirrorbrain-device",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the JSON config file if it exists, then applies
// MIRRORBRAIN_* environment overrides on top. A missing file is not an
// error; defaults are used.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the config as indented JSON, creating parent directories.
func SaveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// DefaultConfigPath returns ~/.mirrorbrain/config.json, or a relative
// fallback when the home directory cannot be resolved.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".mirrorbrain", "config.json")
}
