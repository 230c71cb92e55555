// Package config loads application configuration from YAML files with
// environment-variable overrides. It provides typed structs for the corpus,
// period, keyword and engine settings of a statistics run, and for the
// supporting services (Redis, PostgreSQL, SQLite, Kafka, HTTP server).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Periods   PeriodsConfig   `yaml:"periods"`
	Keywords  string          `yaml:"keywords"`
	Engine    EngineConfig    `yaml:"engine"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Report    ReportConfig    `yaml:"report"`
	Cache     CacheConfig     `yaml:"cache"`
	Store     StoreConfig     `yaml:"store"`
	Server    ServerConfig    `yaml:"server"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// CorpusConfig locates the document collection and names the record fields
// the scanner reads.
type CorpusConfig struct {
	Root          string       `yaml:"root"`
	TextField     string       `yaml:"textField"`
	DropStopwords bool         `yaml:"dropStopwords"`
	Fields        FieldsConfig `yaml:"fields"`
}

// FieldsConfig names the record fields holding the id and the year. The
// fallback year field is consulted only when the primary one is absent.
type FieldsConfig struct {
	ID           string `yaml:"id"`
	Year         string `yaml:"year"`
	YearFallback string `yaml:"yearFallback"`
}

// PeriodsConfig describes the period boundaries either as a range with an
// increment or as an explicit whitespace-separated list.
type PeriodsConfig struct {
	Min        int    `yaml:"min"`
	Max        int    `yaml:"max"`
	Increment  int    `yaml:"increment"`
	Boundaries string `yaml:"boundaries"`
}

// EngineConfig tunes the scanner and the ranked extraction.
type EngineConfig struct {
	Workers  int `yaml:"workers"`
	TopN     int `yaml:"topN"`
	TopWords int `yaml:"topWords"`
}

// SentimentConfig enables the sentiment passes. SnippetRoot holds the
// keyword-adjacent excerpts, FullTextRoot the entire documents used for the
// overall per-period sentiment.
type SentimentConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Lexicon       string `yaml:"lexicon"`
	SnippetRoot   string `yaml:"snippetRoot"`
	FullTextRoot  string `yaml:"fullTextRoot"`
	TextField     string `yaml:"textField"`
	ExtractLength int    `yaml:"extractLength"`
}

// ReportConfig controls where the human-readable report and the structured
// export are written. SinkTimeout bounds each hand-off to the report store
// and the publisher.
type ReportConfig struct {
	TextPath    string        `yaml:"textPath"`
	ExportPath  string        `yaml:"exportPath"`
	CSVPath     string        `yaml:"csvPath"`
	YAMLPath    string        `yaml:"yamlPath"`
	Publish     bool          `yaml:"publish"`
	SinkTimeout time.Duration `yaml:"sinkTimeout"`
}

// CacheConfig enables the Redis report cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// StoreConfig selects the report store backend: "postgres", "sqlite" or ""
// (disabled).
type StoreConfig struct {
	Driver string `yaml:"driver"`
}

// ServerConfig holds HTTP server settings for the stats API.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	AllowOrigins    []string      `yaml:"allowOrigins"`
	// RateLimit is the number of API requests each client may make per
	// minute; 0 disables limiting.
	RateLimit int `yaml:"rateLimit"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// SQLiteConfig holds the path of the local report database.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers []string    `yaml:"brokers"`
	Topics  KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	PeriodStats string `yaml:"periodStats"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig toggles logging of the per-pass span tree after a run.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns a Config with defaults suitable for local runs.
func Default() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Root:      "data/corpus",
			TextField: "filtered",
			Fields: FieldsConfig{
				ID:           "id",
				Year:         "Year Published",
				YearFallback: "Date",
			},
		},
		Engine: EngineConfig{
			Workers:  4,
			TopN:     10,
			TopWords: 20,
		},
		Sentiment: SentimentConfig{
			TextField:     "filtered",
			ExtractLength: 100,
		},
		Report: ReportConfig{
			SinkTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 24 * time.Hour,
		},
		Server: ServerConfig{
			Port:            8090,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "periodstats",
			User:            "periodstats",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		SQLite: SQLiteConfig{
			Path: "periodstats.db",
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topics: KafkaTopics{
				PeriodStats: "period-stats",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9091,
		},
	}
}

// applyEnvOverrides reads PS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PS_CORPUS_ROOT"); v != "" {
		cfg.Corpus.Root = v
	}
	if v := os.Getenv("PS_CORPUS_TEXT_FIELD"); v != "" {
		cfg.Corpus.TextField = v
	}
	if v := os.Getenv("PS_KEYWORDS"); v != "" {
		cfg.Keywords = v
	}
	if v := os.Getenv("PS_PERIODS_BOUNDARIES"); v != "" {
		cfg.Periods.Boundaries = v
	}
	if v := os.Getenv("PS_ENGINE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.Workers = n
		}
	}
	if v := os.Getenv("PS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PS_SERVER_ALLOW_ORIGINS"); v != "" {
		cfg.Server.AllowOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("PS_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("PS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("PS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("PS_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("PS_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("PS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("PS_SQLITE_PATH"); v != "" {
		cfg.SQLite.Path = v
	}
	if v := os.Getenv("PS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("PS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("PS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("PS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
