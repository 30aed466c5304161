// Package config loads and validates crawler configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/JakeFAU/news-article-crawler/internal/crawler"
)

// EnvPrefix namespaces environment overrides, e.g. NEWSCRAWLER_STORE_DRIVER.
const EnvPrefix = "NEWSCRAWLER"

// Store and archive drivers.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	ArchiveNone  = "none"
	ArchiveLocal = "local"
	ArchiveGCS   = "gcs"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Seeds    SeedsConfig    `mapstructure:"seeds"`
	ErrorLog ErrorLogConfig `mapstructure:"error_log"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	Store    StoreConfig    `mapstructure:"store"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// SeedsConfig locates the seed list.
type SeedsConfig struct {
	File string `mapstructure:"file"`
}

// ErrorLogConfig locates the rejected-URL log. An empty path discards rejections.
type ErrorLogConfig struct {
	Path string `mapstructure:"path"`
}

// CrawlerConfig governs fetch and dispatch behavior.
type CrawlerConfig struct {
	UserAgent          string        `mapstructure:"user_agent"`
	UserAgentStrategy  string        `mapstructure:"user_agent_strategy"`
	RespectRobots      bool          `mapstructure:"respect_robots"`
	PerHostConcurrency int           `mapstructure:"per_host_concurrency"`
	Delay              time.Duration `mapstructure:"delay"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	StatusHeader       string        `mapstructure:"status_header"`
	AcceptedStatus     string        `mapstructure:"accepted_status"`
}

// StoreConfig selects and configures the article record store.
type StoreConfig struct {
	Driver   string         `mapstructure:"driver"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// MongoConfig holds document store connection settings. URI wins over the
// individual host fields when both are set.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// PostgresConfig controls access to the relational store.
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int    `mapstructure:"max_conns"`
}

// ArchiveConfig sets where raw page snapshots go.
type ArchiveConfig struct {
	Driver string             `mapstructure:"driver"`
	Prefix string             `mapstructure:"prefix"`
	Local  LocalArchiveConfig `mapstructure:"local"`
	GCS    GCSArchiveConfig   `mapstructure:"gcs"`
}

// LocalArchiveConfig configures the filesystem archive.
type LocalArchiveConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// GCSArchiveConfig configures the bucket archive.
type GCSArchiveConfig struct {
	Bucket string `mapstructure:"bucket"`
}

// PubSubConfig holds metadata for article-stored notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool     `mapstructure:"development"`
	OutputPaths []string `mapstructure:"output_paths"`
}

// ServerConfig controls the ops HTTP server. An empty address disables it.
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// TracingConfig controls OpenTelemetry setup.
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	ServiceName  string  `mapstructure:"service_name"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// Load builds a Config from an optional .env file, an optional config file
// and the environment, in increasing order of precedence.
func Load(path string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// loadDotEnv exports variables from file without overriding ones already set.
func loadDotEnv(file string) error {
	err := godotenv.Load(file)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", file, err)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("seeds.file", "urls.txt")
	v.SetDefault("error_log.path", "error_urls.txt")
	v.SetDefault("crawler.user_agent", crawler.DefaultUserAgent)
	v.SetDefault("crawler.user_agent_strategy", crawler.IdentityFixed)
	v.SetDefault("crawler.respect_robots", true)
	v.SetDefault("crawler.per_host_concurrency", 1)
	v.SetDefault("crawler.delay", 3*time.Second)
	v.SetDefault("crawler.request_timeout", 30*time.Second)
	v.SetDefault("crawler.status_header", crawler.DefaultStatusHeader)
	v.SetDefault("crawler.accepted_status", crawler.DefaultAcceptedStatus)
	v.SetDefault("store.driver", StoreMongo)
	v.SetDefault("store.mongo.uri", "")
	v.SetDefault("store.mongo.user", "")
	v.SetDefault("store.mongo.password", "")
	v.SetDefault("store.mongo.host", "localhost")
	v.SetDefault("store.mongo.port", 27017)
	v.SetDefault("store.mongo.database", "news")
	v.SetDefault("store.mongo.collection", "articles")
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("store.postgres.table", "articles")
	v.SetDefault("store.postgres.max_conns", 4)
	v.SetDefault("archive.driver", ArchiveNone)
	v.SetDefault("archive.prefix", "pages")
	v.SetDefault("archive.local.base_dir", "archive")
	v.SetDefault("archive.gcs.bucket", "")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.output_paths", []string{})
	v.SetDefault("server.listen_addr", "")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "news-article-crawler")
	v.SetDefault("tracing.otlp_endpoint", "")
	v.SetDefault("tracing.sample_ratio", 1.0)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.PerHostConcurrency <= 0 {
		return fmt.Errorf("crawler.per_host_concurrency must be > 0")
	}
	if c.Crawler.Delay < 0 {
		return fmt.Errorf("crawler.delay must be >= 0")
	}
	if c.Crawler.RequestTimeout <= 0 {
		return fmt.Errorf("crawler.request_timeout must be > 0")
	}
	switch strings.ToLower(c.Crawler.UserAgentStrategy) {
	case crawler.IdentityFixed, crawler.IdentityShuffle:
	default:
		return fmt.Errorf("crawler.user_agent_strategy must be %q or %q, got %q",
			crawler.IdentityFixed, crawler.IdentityShuffle, c.Crawler.UserAgentStrategy)
	}

	switch c.Store.Driver {
	case StoreMongo:
		if c.Store.Mongo.URI == "" && c.Store.Mongo.Host == "" {
			return fmt.Errorf("store.mongo.uri or store.mongo.host must be set")
		}
		if c.Store.Mongo.Database == "" {
			return fmt.Errorf("store.mongo.database must be set")
		}
	case StorePostgres:
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn must be set when store.driver is postgres")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("store.driver must be one of mongo, postgres, memory; got %q", c.Store.Driver)
	}

	switch c.Archive.Driver {
	case ArchiveNone, "":
	case ArchiveLocal:
		if c.Archive.Local.BaseDir == "" {
			return fmt.Errorf("archive.local.base_dir must be set when archive.driver is local")
		}
	case ArchiveGCS:
		if c.Archive.GCS.Bucket == "" {
			return fmt.Errorf("archive.gcs.bucket must be set when archive.driver is gcs")
		}
	default:
		return fmt.Errorf("archive.driver must be one of none, local, gcs; got %q", c.Archive.Driver)
	}

	if c.PubSub.Topic != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic is set")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1]")
	}
	return nil
}
