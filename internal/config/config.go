package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	PushAMQP      = "amqp"
	PushWebSocket = "websocket"
)

type Backend struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	// Push selects the channel implementation: "amqp" (default) or
	// "websocket".
	Push         string `yaml:"push"`
	WebSocketURL string `yaml:"websocket_url"`
}

type RabbitMQ struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
	Exchange string `yaml:"exchange"`
	UseTLS   bool   `yaml:"use_tls"`
}

type Database struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type Terminal struct {
	Name                string   `yaml:"name"`
	ListenAddr          string   `yaml:"listen_addr"`
	PollIntervalSeconds int      `yaml:"poll_interval_seconds"`
	AllowedOrigins      []string `yaml:"allowed_origins"`
}

type Config struct {
	Backend  Backend  `yaml:"backend"`
	RabbitMQ RabbitMQ `yaml:"rabbitmq"`
	Database Database `yaml:"database"`
	Terminal Terminal `yaml:"terminal"`
}

// Load reads the YAML config, applies defaults and env-var secret
// overrides, and validates.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Backend.Push == "" {
		c.Backend.Push = PushAMQP
	}
	if c.RabbitMQ.Port == 0 {
		c.RabbitMQ.Port = 5672
	}
	if c.RabbitMQ.VHost == "" {
		c.RabbitMQ.VHost = "/"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "notifications_fanout"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Terminal.ListenAddr == "" {
		c.Terminal.ListenAddr = ":8080"
	}
	if c.Terminal.PollIntervalSeconds == 0 {
		c.Terminal.PollIntervalSeconds = 10
	}
}

// applyEnv lets secrets come from the environment instead of the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("KDS_BACKEND_TOKEN"); v != "" {
		c.Backend.Token = v
	}
	if v := os.Getenv("KDS_RABBITMQ_PASSWORD"); v != "" {
		c.RabbitMQ.Password = v
	}
	if v := os.Getenv("KDS_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
}

func (c *Config) validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("invalid config: backend.base_url is required")
	}
	switch c.Backend.Push {
	case PushAMQP:
		if c.RabbitMQ.Host == "" {
			return errors.New("invalid config: rabbitmq.host is required for amqp push")
		}
	case PushWebSocket:
		if c.Backend.WebSocketURL == "" {
			return errors.New("invalid config: backend.websocket_url is required for websocket push")
		}
	default:
		return fmt.Errorf("invalid config: unknown push mode %q", c.Backend.Push)
	}
	if c.Database.Host == "" {
		return errors.New("invalid config: database.host is required")
	}
	if c.Terminal.PollIntervalSeconds < 0 {
		return errors.New("invalid config: terminal.poll_interval_seconds must be positive")
	}
	return nil
}
