package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Config is the full application configuration, loaded from a JSON file with
// environment variable overrides for secrets.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Consul   ConsulConfig   `json:"consul"`
	Jaeger   JaegerConfig   `json:"jaeger"`
	Log      LogConfig      `json:"log"`
	Auth     AuthConfig     `json:"auth"`
}

type ServerConfig struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	HTTPPort int    `json:"http_port"`
}

type DatabaseConfig struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password" env:"DB_PASSWORD"`
	Database string `json:"database"`
	MaxIdle  int    `json:"max_idle"`
	MaxOpen  int    `json:"max_open"`
}

// ConsulConfig points at the local agent. When ConfigKey is set the service
// reads its configuration from that KV key instead of the local file.
type ConsulConfig struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	ConfigKey string `json:"config_key"`
}

type JaegerConfig struct {
	Endpoint string  `json:"endpoint"`
	Sampler  float64 `json:"sampler"` // sampling rate 0.0-1.0
}

type LogConfig struct {
	Impl   string `json:"impl"`   // logrus (default), zap
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
	Output string `json:"output"` // stdout, file
	Path   string `json:"path"`
}

// AuthConfig drives the auth gate. SecretKey is the base64-encoded HMAC key
// for token signing; TokenValidity is a Go duration string (default 24h).
type AuthConfig struct {
	SecretKey     string `json:"secret_key" env:"AUTH_SECRET_KEY"`
	TokenValidity string `json:"token_validity" env:"AUTH_TOKEN_VALIDITY"`
	Username      string `json:"username" env:"AUTH_USERNAME"`
	Password      string `json:"password" env:"AUTH_PASSWORD"`
}

// LoadConfig reads the JSON config file, falling back to built-in defaults
// when the file does not exist, and then applies env-var overrides.
func LoadConfig(configPath string) (*Config, error) {
	cfg := &Config{}
	if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
		logrus.Warnf("Config file not found: %s, using default config", configPath)
		cfg = defaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}
	return cfg, nil
}

// defaultConfig is the development setup.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:     "cars-service",
			Host:     "0.0.0.0",
			HTTPPort: 8080,
		},
		Database: DatabaseConfig{
			Driver:   "mysql",
			Host:     "localhost",
			Port:     3306,
			User:     "root",
			Password: "root",
			Database: "carvault",
			MaxIdle:  10,
			MaxOpen:  100,
		},
		Consul: ConsulConfig{
			Host: "localhost",
			Port: 8500,
		},
		Jaeger: JaegerConfig{
			Endpoint: "localhost:6831",
			Sampler:  1.0,
		},
		Log: LogConfig{
			Impl:   "logrus",
			Level:  "debug",
			Format: "text",
			Output: "stdout",
			Path:   "logs/app.log",
		},
		Auth: AuthConfig{
			// Dev-only key; production deployments override via AUTH_SECRET_KEY.
			SecretKey:     "Y2Fycy1yZWdpc3RyeS1kZXYtc2VjcmV0LWtleS0zMmI=",
			TokenValidity: "24h",
			Username:      "user",
			Password:      "user",
		},
	}
}
