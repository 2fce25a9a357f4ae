package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type ClickhouseConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Database string `toml:"database"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

func (c ClickhouseConfig) Addr() string {
	return fmt.Sprintf("%v:%v", c.Host, c.Port)
}

type TablesConfig struct {
	Baseline  string `toml:"baseline"`
	Optimized string `toml:"optimized"`
	View      string `toml:"view"`
}

type Config struct {
	Clickhouse ClickhouseConfig `toml:"clickhouse"`
	Tables     TablesConfig     `toml:"tables"`

	DataPath   string `toml:"data-path"`
	ResultsDir string `toml:"results-dir"`

	Iterations int `toml:"iterations"`
	Warmup     int `toml:"warmup"`

	Tolerance float64 `toml:"tolerance"`

	DuckDBPath   string `toml:"duckdb-path"`
	ResultsDbURL string `toml:"results-db-url"`
	LogLevel     string `toml:"log-level"`
}

func DefaultConfig() Config {
	return Config{
		Clickhouse: ClickhouseConfig{
			Host:     "localhost",
			Port:     8123,
			Database: "analytics",
			User:     "default",
		},
		Tables: TablesConfig{
			Baseline:  "taxi_baseline",
			Optimized: "taxi_optimized",
			View:      "mv_monthly_revenue",
		},
		DataPath:   "data/parquet",
		ResultsDir: "results",
		Iterations: 3,
		Tolerance:  0.01,
		DuckDBPath: "duckdb_baseline.db",
		LogLevel:   "INFO",
	}
}

// DecodeConfig overlays TOML content on top of cfg.
func DecodeConfig(content string, cfg Config) (Config, error) {
	if _, err := toml.Decode(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// LoadConfig builds the configuration from defaults, an optional TOML file,
// an optional .env file and finally the process environment.
func LoadConfig(configPath, envPath string) (Config, error) {
	cfg := DefaultConfig()
	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %v: %w", configPath, err)
		}
		cfg, err = DecodeConfig(string(content), cfg)
		if err != nil {
			return Config{}, err
		}
	}
	if envPath != "" {
		err := godotenv.Load(envPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load env file %v: %w", envPath, err)
		}
	}
	cfg = cfg.FromEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) FromEnv() Config {
	c.Clickhouse.Host = StringEnv("CLICKHOUSE_HOST", c.Clickhouse.Host)
	c.Clickhouse.Port = IntEnv("CLICKHOUSE_PORT", c.Clickhouse.Port)
	c.Clickhouse.Database = StringEnv("CLICKHOUSE_DATABASE", c.Clickhouse.Database)
	c.Clickhouse.User = StringEnv("CLICKHOUSE_USER", c.Clickhouse.User)
	c.Clickhouse.Password = StringEnv("CLICKHOUSE_PASSWORD", c.Clickhouse.Password)
	c.DataPath = StringEnv("DATA_PATH", c.DataPath)
	c.ResultsDir = StringEnv("RESULTS_DIR", c.ResultsDir)
	c.Iterations = IntEnv("BENCHMARK_ITERATIONS", c.Iterations)
	c.Warmup = IntEnv("BENCHMARK_WARMUP", c.Warmup)
	c.Tolerance = FloatEnv("VALIDATION_TOLERANCE", c.Tolerance)
	c.DuckDBPath = StringEnv("DUCKDB_PATH", c.DuckDBPath)
	c.ResultsDbURL = StringEnv("RESULTS_DB_URL", c.ResultsDbURL)
	c.LogLevel = StringEnv("LOG_LEVEL", c.LogLevel)
	return c
}

func (c Config) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %v", c.Iterations)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("warmup must not be negative, got %v", c.Warmup)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must not be negative, got %v", c.Tolerance)
	}
	return nil
}

func StringEnv(key string, def string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	return value
}

func IntEnv(key string, def int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		Logger.Warnf("failed to parse %v=%q as int, fallback to %v", key, value, def)
		return def
	}
	return parsed
}

func FloatEnv(key string, def float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		Logger.Warnf("failed to parse %v=%q as float, fallback to %v", key, value, def)
		return def
	}
	return parsed
}
