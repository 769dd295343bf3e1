// Package config loads runtime settings from a YAML file, .env files and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment override, e.g. LEVELUP_BANK_PATH.
const EnvPrefix = "LEVELUP"

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config is the full runtime configuration.
type Config struct {
	Bank     BankConfig     `mapstructure:"bank"`
	Store    StoreConfig    `mapstructure:"store"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Events   EventsConfig   `mapstructure:"events"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

// BankConfig locates the question bank.
type BankConfig struct {
	Path string `mapstructure:"path"`
}

// StoreConfig selects and addresses the progress store.
type StoreConfig struct {
	Driver        string `mapstructure:"driver"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

// TelegramConfig holds the Bot API credentials.
type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

// EventsConfig points at the RabbitMQ broker; an empty URI disables events.
type EventsConfig struct {
	RabbitMQURI string `mapstructure:"rabbitmq_uri"`
	Exchange    string `mapstructure:"exchange"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address of /metrics; empty disables the endpoint.
	Addr string `mapstructure:"addr"`
}

// LogConfig sets the log level and optional rotating log file.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bank.path", "data/questions.json")
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.sqlite_path", "")
	v.SetDefault("store.mongo_uri", "")
	v.SetDefault("store.mongo_database", "levelup")
	v.SetDefault("telegram.token", "")
	v.SetDefault("events.rabbitmq_uri", "")
	v.SetDefault("events.exchange", "levelup.events")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the config file at path (or levelup.yaml in the working
// directory when path is empty, if present) and applies environment
// overrides. The result is not validated, so callers can apply flag
// overrides before calling Validate.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Names used by existing deployments.
	_ = v.BindEnv("telegram.token", "LEVELUP_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN", "TOKEN")
	_ = v.BindEnv("store.sqlite_path", "LEVELUP_STORE_SQLITE_PATH", "LEVELUP_DB")
	_ = v.BindEnv("store.mongo_uri", "LEVELUP_STORE_MONGO_URI", "MONGO_URI")
	_ = v.BindEnv("events.rabbitmq_uri", "LEVELUP_EVENTS_RABBITMQ_URI", "RABBITMQ_URI")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("levelup")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("store.driver %q requires store.mongo_uri", DriverMongo)
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
