package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Sources    []SourceConfig   `yaml:"sources"`
	HTTP       HTTPConfig       `yaml:"http"`
	Cache      CacheConfig      `yaml:"cache"`
	Dedup      DedupConfig      `yaml:"dedup"`
	Categories CategoriesConfig `yaml:"categories"`
	Refresh    RefreshConfig    `yaml:"refresh"`
	Events     EventsConfig     `yaml:"events"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// SourceConfig describes one job board the aggregator pulls from
type SourceConfig struct {
	Name     string `yaml:"name"`
	Enabled  bool   `yaml:"enabled"`
	Priority int    `yaml:"priority"`
	BaseURL  string `yaml:"base_url"`
	PageSize int    `yaml:"page_size"`
}

// HTTPConfig holds the outbound HTTP client settings shared by sources
type HTTPConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
	RetryMaxDelay  time.Duration `yaml:"retry_max_delay"`
	MaxConcurrent  int           `yaml:"max_concurrent"`
}

// CacheConfig holds the two-tier cache settings
type CacheConfig struct {
	Backend   string         `yaml:"backend"` // memory, redis, or postgres
	Namespace string         `yaml:"namespace"`
	FastTTL   time.Duration  `yaml:"fast_ttl"`
	SlowTTL   time.Duration  `yaml:"slow_ttl"`
	Redis     RedisConfig    `yaml:"redis"`
	Postgres  DatabaseConfig `yaml:"postgres"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// DedupConfig holds deduplication settings
type DedupConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// CategoriesConfig holds categorization settings
type CategoriesConfig struct {
	MatchThreshold int `yaml:"match_threshold"`
}

// RefreshConfig holds the background refresh schedule
type RefreshConfig struct {
	Interval     time.Duration `yaml:"interval"`
	SnapshotSize int           `yaml:"snapshot_size"`
}

// EventsConfig holds the refresh-event publishing settings
type EventsConfig struct {
	Enabled  bool           `yaml:"enabled"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange configuration
type RabbitMQConfig struct {
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	RoutingKey string           `yaml:"routing_key"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Durable bool   `yaml:"durable"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// Load reads and parses the configuration file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// EnabledSources returns the enabled sources ordered by priority (lower
// runs first)
func (c *Config) EnabledSources() []SourceConfig {
	enabled := make([]SourceConfig, 0, len(c.Sources))
	for _, s := range c.Sources {
		if s.Enabled {
			enabled = append(enabled, s)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority < enabled[j].Priority
	})
	return enabled
}

// ValidateAPIConfig checks the configuration needed by the API service
func (c *Config) ValidateAPIConfig() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if len(c.EnabledSources()) == 0 {
		return fmt.Errorf("at least one enabled source is required")
	}

	for _, s := range c.Sources {
		if s.Name == "" {
			return fmt.Errorf("source name is required")
		}
		if s.Enabled && s.BaseURL == "" {
			return fmt.Errorf("source %s: base_url is required", s.Name)
		}
	}

	return c.validateCache()
}

// ValidateRefreshConfig checks the configuration needed by the refresh
// service
func (c *Config) ValidateRefreshConfig() error {
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh interval must be greater than 0")
	}

	if c.Refresh.SnapshotSize <= 0 {
		return fmt.Errorf("refresh snapshot_size must be greater than 0")
	}

	if len(c.EnabledSources()) == 0 {
		return fmt.Errorf("at least one enabled source is required")
	}

	if c.Events.Enabled {
		if c.Events.RabbitMQ.Host == "" {
			return fmt.Errorf("rabbitmq host is required when events are enabled")
		}
		if c.Events.RabbitMQ.Port < MinPort || c.Events.RabbitMQ.Port > MaxPort {
			return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", c.Events.RabbitMQ.Port, MinPort, MaxPort)
		}
		if c.Events.RabbitMQ.Exchange.Name == "" {
			return fmt.Errorf("rabbitmq exchange name is required when events are enabled")
		}
	}

	return c.validateCache()
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case "", "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for the redis cache backend")
		}
	case "postgres":
		if c.Cache.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required for the postgres cache backend")
		}
		if c.Cache.Postgres.Database == "" {
			return fmt.Errorf("postgres database is required for the postgres cache backend")
		}
	default:
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}

	if c.Dedup.SimilarityThreshold < 0 || c.Dedup.SimilarityThreshold > 1 {
		return fmt.Errorf("dedup similarity_threshold must be between 0 and 1")
	}

	return nil
}
