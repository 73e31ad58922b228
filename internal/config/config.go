package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Live transport names
const (
	TransportWebSocket = "websocket"
	TransportKafka     = "kafka"
)

// Config represents the application configuration
type Config struct {
	API     APIConfig     `yaml:"api"`
	Live    LiveConfig    `yaml:"live"`
	Redis   RedisConfig   `yaml:"redis"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Refresh RefreshConfig `yaml:"refresh"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig holds the backend REST configuration
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	WSBaseURL string        `yaml:"ws_base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// LiveConfig holds push channel configuration
type LiveConfig struct {
	Transport        string        `yaml:"transport"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	PongWait         time.Duration `yaml:"pong_wait"`
	ReadLimit        int64         `yaml:"read_limit"`
	EventBuffer      int           `yaml:"event_buffer"`
}

// RedisConfig holds Redis cache configuration
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ListTTL      time.Duration `yaml:"list_ttl"`
	LiveTTL      time.Duration `yaml:"live_ttl"`
	FinalTTL     time.Duration `yaml:"final_ttl"`
}

// KafkaConfig holds Kafka transport configuration
type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	Topic       string   `yaml:"topic"`
	GroupPrefix string   `yaml:"group_prefix"`
}

// RefreshConfig holds the periodic refresh worker configuration
type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
	Enabled  bool          `yaml:"enabled"`
}

// ServerConfig holds the local view endpoint configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	CORSOrigins  []string      `yaml:"cors_origins"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// SlogLevel converts the configured level name to a slog level
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that have no sensible default
func (c *Config) Validate() error {
	switch c.Live.Transport {
	case TransportWebSocket, TransportKafka:
	default:
		return fmt.Errorf("unknown live transport %q", c.Live.Transport)
	}
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api base_url must be an http(s) URL, got %q", c.API.BaseURL)
	}
	return nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8000"
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.WSBaseURL == "" {
		c.API.WSBaseURL = wsFromHTTP(c.API.BaseURL)
	}
	c.API.WSBaseURL = strings.TrimRight(c.API.WSBaseURL, "/")
	if c.API.Timeout == 0 {
		c.API.Timeout = 10 * time.Second
	}
	if c.API.UserAgent == "" {
		c.API.UserAgent = "courtside/1.0"
	}

	// Live channel defaults
	if c.Live.Transport == "" {
		c.Live.Transport = TransportWebSocket
	}
	if c.Live.HandshakeTimeout == 0 {
		c.Live.HandshakeTimeout = 10 * time.Second
	}
	if c.Live.PongWait == 0 {
		c.Live.PongWait = 60 * time.Second
	}
	if c.Live.ReadLimit == 0 {
		c.Live.ReadLimit = 4 << 20
	}
	if c.Live.EventBuffer == 0 {
		c.Live.EventBuffer = 64
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}
	if c.Redis.ListTTL == 0 {
		c.Redis.ListTTL = 1 * time.Minute
	}
	if c.Redis.LiveTTL == 0 {
		c.Redis.LiveTTL = 30 * time.Second
	}
	if c.Redis.FinalTTL == 0 {
		c.Redis.FinalTTL = 6 * time.Hour
	}

	// Kafka defaults
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "game-live-frames"
	}
	if c.Kafka.GroupPrefix == "" {
		c.Kafka.GroupPrefix = "courtside-view"
	}

	// Refresh defaults
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = 30 * time.Second
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8090
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// wsFromHTTP derives the push channel base from the REST base
func wsFromHTTP(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Refresh.Enabled = true
	return cfg
}
