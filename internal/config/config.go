package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Cache      CacheConfig      `yaml:"cache"`
	Exports    ExportConfig     `yaml:"exports"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout"`
	WriteTimeoutSec int `yaml:"write_timeout"`
	ShutdownSec     int `yaml:"shutdown_timeout"`
}

type GatewayConfig struct {
	Port       int             `yaml:"port"`
	ServerURL  string          `yaml:"server_url"`
	TimeoutSec int             `yaml:"timeout"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type CacheConfig struct {
	TTLSec int `yaml:"ttl"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// Load reads the YAML config at configPath, expanding ${VAR} references
// from the environment. A .env file is loaded first when present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Gateway.ServerURL == "" {
		return errors.New("gateway server url is required")
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		return errors.New("redis address is required when redis is enabled")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 9090
	}
	if c.Server.ReadTimeoutSec == 0 {
		c.Server.ReadTimeoutSec = 15
	}
	if c.Server.WriteTimeoutSec == 0 {
		c.Server.WriteTimeoutSec = 15
	}
	if c.Server.ShutdownSec == 0 {
		c.Server.ShutdownSec = 10
	}

	if c.Gateway.Port == 0 {
		c.Gateway.Port = 8080
	}
	if c.Gateway.ServerURL == "" {
		c.Gateway.ServerURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	if c.Gateway.TimeoutSec == 0 {
		c.Gateway.TimeoutSec = 30
	}
	if c.Gateway.RateLimit.RPS == 0 {
		c.Gateway.RateLimit.RPS = 10
	}
	if c.Gateway.RateLimit.Burst == 0 {
		c.Gateway.RateLimit.Burst = 20
	}

	if c.Cache.TTLSec == 0 {
		c.Cache.TTLSec = 300
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}

	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 2112
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
