// Package config loads the process-wide configuration. A single Config value
// is built at startup and handed to every component that needs it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// PriorityAfterAction values.
const (
	PriorityToActivePlayer = "active"
	PriorityToActor        = "actor"
)

// Config is the root configuration.
type Config struct {
	Version     VersionConfig     `mapstructure:"version"`
	Engine      EngineConfig      `mapstructure:"engine"`
	Preferences PreferencesConfig `mapstructure:"preferences"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
}

// VersionConfig identifies the rules engine build reported to clients.
type VersionConfig struct {
	Major int    `mapstructure:"major"`
	Minor int    `mapstructure:"minor"`
	Patch int    `mapstructure:"patch"`
	Info  string `mapstructure:"info"`
}

func (v VersionConfig) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Info != "" {
		s += "-" + v.Info
	}
	return s
}

// EngineConfig bounds the rules engine loops and sets game defaults.
type EngineConfig struct {
	MaxStateBasedPasses     int           `mapstructure:"max_state_based_passes"`
	MaxTriggerRounds        int           `mapstructure:"max_trigger_rounds"`
	DecisionTimeout         time.Duration `mapstructure:"decision_timeout"`
	MaxIllegalActionRetries int           `mapstructure:"max_illegal_action_retries"`
	PriorityAfterAction     string        `mapstructure:"priority_after_action"`
	StartingLife            int           `mapstructure:"starting_life"`
	StartingHandSize        int           `mapstructure:"starting_hand_size"`
	// Seed feeds the game RNG. Zero seeds from the clock.
	Seed int64 `mapstructure:"seed"`
}

// PreferencesConfig holds user-facing toggles.
type PreferencesConfig struct {
	AutoPassEmptyStack bool `mapstructure:"auto_pass_empty_stack"`
	ShowStackDebug     bool `mapstructure:"show_stack_debug"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig groups the network listeners.
type ServerConfig struct {
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	GRPC      GRPCConfig      `mapstructure:"grpc"`
}

// WebSocketConfig configures the event broadcaster.
type WebSocketConfig struct {
	Address      string        `mapstructure:"address"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	SendBuffer   int           `mapstructure:"send_buffer"`
}

// GRPCConfig configures the health endpoint.
type GRPCConfig struct {
	Address string `mapstructure:"address"`
}

// DatabaseConfig configures the snapshot store. An empty URL disables it.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("version.major", 1)
	v.SetDefault("version.minor", 3)
	v.SetDefault("version.patch", 0)
	v.SetDefault("version.info", "")

	v.SetDefault("engine.max_state_based_passes", 100)
	v.SetDefault("engine.max_trigger_rounds", 100)
	v.SetDefault("engine.decision_timeout", 60*time.Second)
	v.SetDefault("engine.max_illegal_action_retries", 3)
	v.SetDefault("engine.priority_after_action", PriorityToActivePlayer)
	v.SetDefault("engine.starting_life", 20)
	v.SetDefault("engine.starting_hand_size", 7)
	v.SetDefault("engine.seed", 0)

	v.SetDefault("preferences.auto_pass_empty_stack", false)
	v.SetDefault("preferences.show_stack_debug", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.ping_interval", 60*time.Second)
	v.SetDefault("server.websocket.write_timeout", 10*time.Second)
	v.SetDefault("server.websocket.send_buffer", 256)
	v.SetDefault("server.grpc.address", ":50051")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 4)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("MAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	// Unmarshalling defaults alone cannot fail.
	_ = newViper().Unmarshal(cfg)
	return cfg
}

// Load reads the YAML file at path, applies MAGE_ environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the bounds the engine relies on.
func (c *Config) Validate() error {
	switch {
	case c.Engine.MaxStateBasedPasses < 1:
		return fmt.Errorf("engine.max_state_based_passes must be positive, got %d", c.Engine.MaxStateBasedPasses)
	case c.Engine.MaxTriggerRounds < 1:
		return fmt.Errorf("engine.max_trigger_rounds must be positive, got %d", c.Engine.MaxTriggerRounds)
	case c.Engine.DecisionTimeout < 0:
		return fmt.Errorf("engine.decision_timeout must not be negative")
	case c.Engine.MaxIllegalActionRetries < 0:
		return fmt.Errorf("engine.max_illegal_action_retries must not be negative")
	case c.Engine.StartingLife < 1:
		return fmt.Errorf("engine.starting_life must be positive, got %d", c.Engine.StartingLife)
	case c.Engine.StartingHandSize < 0:
		return fmt.Errorf("engine.starting_hand_size must not be negative")
	}
	switch c.Engine.PriorityAfterAction {
	case PriorityToActivePlayer, PriorityToActor:
	default:
		return fmt.Errorf("engine.priority_after_action must be %q or %q, got %q",
			PriorityToActivePlayer, PriorityToActor, c.Engine.PriorityAfterAction)
	}
	return nil
}
