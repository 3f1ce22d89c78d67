// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	ListenAddress  string `mapstructure:"listen_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	Index      string   `mapstructure:"index"`
	Enabled    bool     `mapstructure:"enabled"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Engine Configuration ---

// EngineConfig groups the tunable parameters of the matching pipeline.
// Weight tables are configuration, not behavior: they are validated at
// construction and passed into components, never shared mutable state.
type EngineConfig struct {
	Scoring       ScoringConfig       `mapstructure:"scoring"`
	Blend         BlendConfig         `mapstructure:"blend"`
	Collaborative CollaborativeConfig `mapstructure:"collaborative"`
	Prediction    PredictionConfig    `mapstructure:"prediction"`
	Forecast      ForecastConfig      `mapstructure:"forecast"`
	Run           RunConfig           `mapstructure:"run"`
}

// ScoringConfig carries the match-score weight table. An empty map means
// the built-in defaults.
type ScoringConfig struct {
	Weights map[string]float64 `mapstructure:"weights"`
}

type BlendConfig struct {
	Collaborative float64 `mapstructure:"collaborative"`
	Content       float64 `mapstructure:"content"`
}

type CollaborativeConfig struct {
	TopK int `mapstructure:"top_k"`
}

type PredictionConfig struct {
	Weights      map[string]float64 `mapstructure:"weights"`
	EstimatorURL string             `mapstructure:"estimator_url"`
	Timeout      int                `mapstructure:"timeout"` // milliseconds
	Calibrate    bool               `mapstructure:"calibrate"`
}

type ForecastConfig struct {
	BucketDays     int     `mapstructure:"bucket_days"`
	CycleLength    int     `mapstructure:"cycle_length"`
	SmoothingAlpha float64 `mapstructure:"smoothing_alpha"`
	TrendBeta      float64 `mapstructure:"trend_beta"`
}

type RunConfig struct {
	MaxWorkers     int `mapstructure:"max_workers"`
	Timeout        int `mapstructure:"timeout"` // milliseconds
	DefaultLimit   int `mapstructure:"default_limit"`
	LookbackDays   int `mapstructure:"lookback_days"`
	ResultCacheTTL int `mapstructure:"result_cache_ttl"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
