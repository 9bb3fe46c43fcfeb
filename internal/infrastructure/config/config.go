package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration of the portal
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Insight   InsightConfig   `mapstructure:"insight"`
	Export    ExportConfig    `mapstructure:"export"`
	Storage   StorageConfig   `mapstructure:"storage"`
	PDF       PDFConfig       `mapstructure:"pdf"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the postgres connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// URL returns the connection string in URL form, as the migration tool wants it
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// Enabled false runs the portal on the in-process snapshot cache
	Enabled bool `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type DashboardConfig struct {
	// CacheTTL bounds snapshot staleness when invalidation events are lost
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	PageSize int           `mapstructure:"page_size"`
	UseCache bool          `mapstructure:"use_cache"`
}

type InsightConfig struct {
	LowMarginThresholdPct float64 `mapstructure:"low_margin_threshold_pct"`
	LostMonths            int     `mapstructure:"lost_months"`
}

type ExportConfig struct {
	QueueSize int `mapstructure:"queue_size"`
}

type StorageConfig struct {
	// Driver is "s3" or "memory"
	Driver    string `mapstructure:"driver"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type PDFConfig struct {
	// ChromePath overrides the browser binary; empty lets chromedp look it up
	ChromePath string        `mapstructure:"chrome_path"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from config.toml and PORTAL_* environment
// variables, env taking precedence. A missing file is fine, the defaults
// carry a local development setup.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	v.SetEnvPrefix("PORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "portal")
	v.SetDefault("database.password", "portal")
	v.SetDefault("database.name", "portal")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open", 25)
	v.SetDefault("database.max_idle", 5)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("dashboard.cache_ttl", "600s")
	v.SetDefault("dashboard.page_size", 5)
	v.SetDefault("dashboard.use_cache", true)

	v.SetDefault("insight.low_margin_threshold_pct", 20)
	v.SetDefault("insight.lost_months", 6)

	v.SetDefault("export.queue_size", 16)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.bucket", "portal-exports")
	v.SetDefault("storage.region", "eu-west-3")

	v.SetDefault("pdf.timeout", "30s")
}
