package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrNoSecret = errors.New("secret is required")

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	LogLevel   string        `mapstructure:"log_level"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
	StateClearAfter   time.Duration `mapstructure:"state_clear_after"`
	RoomDeleteAfter   time.Duration `mapstructure:"room_delete_after"`

	JoinLimit    int           `mapstructure:"join_limit"`
	JoinWindow   time.Duration `mapstructure:"join_window"`
	Backpressure string        `mapstructure:"backpressure"`

	ICEServers []string `mapstructure:"ice_servers"`
}

// Load reads config/config.<CONFIG_ENV>.yaml when present and lets WATCH_*
// environment variables override any key.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.SetEnvPrefix("watch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "")
	v.SetDefault("reconcile_interval", "10s")
	v.SetDefault("state_clear_after", "30s")
	v.SetDefault("room_delete_after", "5m")
	v.SetDefault("join_limit", 10)
	v.SetDefault("join_window", "1m")
	v.SetDefault("backpressure", "drop")
	v.SetDefault("ice_servers", []string{"stun:stun.l.google.com:19302"})

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Secret == "" {
		return nil, ErrNoSecret
	}
	if cfg.ReconcileInterval <= 0 {
		return nil, fmt.Errorf("reconcile_interval must be positive, got %s", cfg.ReconcileInterval)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Reconcile: %s\n", cfg.Mode, cfg.Port, cfg.ReconcileInterval)
	return &cfg, nil
}
