package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Room   RoomConfig   `yaml:"room"`
}

// ServerConfig configures the websocket gateway.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RedisConfig configures the shared document store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RoomConfig configures room behavior.
type RoomConfig struct {
	PresenceTTL int `yaml:"presence_ttl"` // presence record lifetime without heartbeat (seconds)
	CodeLength  int `yaml:"code_length"`  // room code length
}

// PresenceTTLDuration returns the presence record lifetime.
func (c *RoomConfig) PresenceTTLDuration() time.Duration {
	return time.Duration(c.PresenceTTL) * time.Second
}

// Load reads a yaml config file, filling in defaults for missing fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the default configuration.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 1780
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Room.PresenceTTL == 0 {
		cfg.Room.PresenceTTL = 30
	}
	if cfg.Room.CodeLength == 0 {
		cfg.Room.CodeLength = 6
	}
}
