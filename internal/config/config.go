package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/claude/pullupcoach/internal/counter"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Auth      AuthConfig      `yaml:"auth"`
	Pose      PoseConfig      `yaml:"pose"`
	Counter   CounterConfig   `yaml:"counter"`
	Debug     DebugConfig     `yaml:"debug"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type AuthConfig struct {
	// APIKey guards the session API when set. Empty disables auth (dev, or
	// tsnet-only exposure).
	APIKey string `yaml:"api_key"`
}

type PoseConfig struct {
	// Endpoint is the base URL of the pose-estimation sidecar.
	Endpoint   string `yaml:"endpoint"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// CounterConfig mirrors counter.Config in YAML-friendly units.
type CounterConfig struct {
	MinConfidence        float64 `yaml:"min_confidence"`
	RepCooldownSec       float64 `yaml:"rep_cooldown_sec"`
	MinConsecutiveFrames float64 `yaml:"min_consecutive_frames"`
	MovementThreshold    float64 `yaml:"movement_threshold"`
	MinMovementRange     float64 `yaml:"min_movement_range"`
	HistorySize          int     `yaml:"history_size"`
	DirectionLogSize     int     `yaml:"direction_log_size"`
}

type DebugConfig struct {
	// Mode is one of debug, debug_no_save, non_debug.
	Mode string `yaml:"mode"`
	Dir  string `yaml:"dir"`
}

// Settings converts the YAML counter section into the counter package's
// config type.
func (c CounterConfig) Settings() counter.Config {
	return counter.Config{
		MinConfidence:        c.MinConfidence,
		RepCooldown:          time.Duration(c.RepCooldownSec * float64(time.Second)),
		MinConsecutiveFrames: c.MinConsecutiveFrames,
		MovementThreshold:    c.MovementThreshold,
		MinMovementRange:     c.MinMovementRange,
		HistorySize:          c.HistorySize,
		DirectionLogSize:     c.DirectionLogSize,
	}
}

// Timeout returns the sidecar request timeout.
func (p PoseConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSec) * time.Second
}

// defaults returns a fully populated config; Load overlays the YAML file and
// environment on top of it.
func defaults() *Config {
	cc := counter.DefaultConfig()
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8000},
		Pose:   PoseConfig{TimeoutSec: 10},
		Counter: CounterConfig{
			MinConfidence:        cc.MinConfidence,
			RepCooldownSec:       cc.RepCooldown.Seconds(),
			MinConsecutiveFrames: cc.MinConsecutiveFrames,
			MovementThreshold:    cc.MovementThreshold,
			MinMovementRange:     cc.MinMovementRange,
			HistorySize:          cc.HistorySize,
			DirectionLogSize:     cc.DirectionLogSize,
		},
		Debug: DebugConfig{Mode: "debug", Dir: "debug_frames"},
	}
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix PULLUP_ and underscore-separated paths:
//
//	PULLUP_SERVER_HOST, PULLUP_SERVER_PORT,
//	PULLUP_POSE_ENDPOINT, PULLUP_AUTH_API_KEY,
//	PULLUP_DEBUG_MODE, PULLUP_DEBUG_DIR
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PULLUP_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PULLUP_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PULLUP_POSE_ENDPOINT"); v != "" {
		cfg.Pose.Endpoint = v
	}
	if v := os.Getenv("PULLUP_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("PULLUP_DEBUG_MODE"); v != "" {
		cfg.Debug.Mode = v
	}
	if v := os.Getenv("PULLUP_DEBUG_DIR"); v != "" {
		cfg.Debug.Dir = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Pose.Endpoint == "" {
		return fmt.Errorf("pose.endpoint is required")
	}
	if c.Pose.TimeoutSec <= 0 {
		return fmt.Errorf("pose.timeout_sec must be positive")
	}
	switch c.Debug.Mode {
	case "debug", "debug_no_save", "non_debug":
	default:
		return fmt.Errorf("debug.mode must be debug, debug_no_save or non_debug")
	}
	if c.Debug.Mode == "debug" && c.Debug.Dir == "" {
		return fmt.Errorf("debug.dir is required in debug mode")
	}
	cc := c.Counter
	if cc.MinConfidence < 0 || cc.MinConfidence > 1 {
		return fmt.Errorf("counter.min_confidence must be in [0,1]")
	}
	if cc.RepCooldownSec <= 0 {
		return fmt.Errorf("counter.rep_cooldown_sec must be positive")
	}
	if cc.MinConsecutiveFrames <= 0 {
		return fmt.Errorf("counter.min_consecutive_frames must be positive")
	}
	if cc.MovementThreshold <= 0 {
		return fmt.Errorf("counter.movement_threshold must be positive")
	}
	if cc.MinMovementRange <= 0 {
		return fmt.Errorf("counter.min_movement_range must be positive")
	}
	if cc.HistorySize <= 0 || cc.DirectionLogSize <= 0 {
		return fmt.Errorf("counter history and direction log sizes must be positive")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
