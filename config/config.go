package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"smc-analyzer/internal/analysis"
	"smc-analyzer/internal/logging"
	"smc-analyzer/internal/market"
)

// Config is the full service configuration. Values load from an
// optional JSON file and are overridden by environment variables.
type Config struct {
	AnalysisConfig analysis.Config `json:"analysis"`
	ServerConfig   ServerConfig    `json:"server"`
	RedisConfig    RedisConfig     `json:"redis"`
	DatabaseConfig DatabaseConfig  `json:"database"`
	LoggingConfig  logging.Config  `json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ProductionMode  bool          `json:"production_mode"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	RateLimit       int           `json:"rate_limit"`  // requests per window per client
	RateWindow      time.Duration `json:"rate_window"`
}

// RedisConfig holds snapshot-cache configuration
type RedisConfig struct {
	Enabled  bool          `json:"enabled"`
	Address  string        `json:"address"`
	Password string        `json:"password"`
	DB       int           `json:"db"`
	PoolSize int           `json:"pool_size"`
	TTL      time.Duration `json:"ttl"`
}

// DatabaseConfig holds snapshot-store configuration
type DatabaseConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

// Load builds the configuration: defaults, then the JSON file named by
// CONFIG_FILE (if any), then environment overrides.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		loaded, err := loadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnv(cfg)

	if err := cfg.AnalysisConfig.Validate(); err != nil {
		return nil, fmt.Errorf("analysis config: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		AnalysisConfig: analysis.DefaultConfig(market.TF1h),
		ServerConfig: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       60,
			RateWindow:      time.Minute,
		},
		RedisConfig: RedisConfig{
			Address:  "localhost:6379",
			PoolSize: 10,
			TTL:      5 * time.Minute,
		},
		DatabaseConfig: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "smc",
			SSLMode:  "disable",
		},
		LoggingConfig: logging.Config{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func applyEnv(cfg *Config) {
	// Analysis
	cfg.AnalysisConfig.LookbackLeft = getEnvIntOrDefault("ANALYSIS_LOOKBACK_LEFT", cfg.AnalysisConfig.LookbackLeft)
	cfg.AnalysisConfig.LookbackRight = getEnvIntOrDefault("ANALYSIS_LOOKBACK_RIGHT", cfg.AnalysisConfig.LookbackRight)
	cfg.AnalysisConfig.OBLookbackWindow = getEnvIntOrDefault("ANALYSIS_OB_LOOKBACK_WINDOW", cfg.AnalysisConfig.OBLookbackWindow)
	cfg.AnalysisConfig.FVGMinGapSize = getEnvFloatOrDefault("ANALYSIS_FVG_MIN_GAP_SIZE", cfg.AnalysisConfig.FVGMinGapSize)
	cfg.AnalysisConfig.FVGAutoThreshold = getEnvOrDefault("ANALYSIS_FVG_AUTO_THRESHOLD", boolString(cfg.AnalysisConfig.FVGAutoThreshold)) == "true"
	cfg.AnalysisConfig.SweepThresholdMult = getEnvFloatOrDefault("ANALYSIS_SWEEP_THRESHOLD_MULT", cfg.AnalysisConfig.SweepThresholdMult)
	cfg.AnalysisConfig.EqualLevelMult = getEnvFloatOrDefault("ANALYSIS_EQ_LEVEL_MULT", cfg.AnalysisConfig.EqualLevelMult)
	cfg.AnalysisConfig.BreakOnWick = getEnvOrDefault("ANALYSIS_BREAK_ON_WICK", boolString(cfg.AnalysisConfig.BreakOnWick)) == "true"
	cfg.AnalysisConfig.IncludeFVGMids = getEnvOrDefault("ANALYSIS_INCLUDE_FVG_MIDPOINTS", boolString(cfg.AnalysisConfig.IncludeFVGMids)) == "true"

	// Server
	cfg.ServerConfig.Host = getEnvOrDefault("SERVER_HOST", cfg.ServerConfig.Host)
	cfg.ServerConfig.Port = getEnvIntOrDefault("SERVER_PORT", cfg.ServerConfig.Port)
	cfg.ServerConfig.ProductionMode = getEnvOrDefault("SERVER_PRODUCTION", boolString(cfg.ServerConfig.ProductionMode)) == "true"
	cfg.ServerConfig.RateLimit = getEnvIntOrDefault("SERVER_RATE_LIMIT", cfg.ServerConfig.RateLimit)

	// Redis
	cfg.RedisConfig.Enabled = getEnvOrDefault("REDIS_ENABLED", boolString(cfg.RedisConfig.Enabled)) == "true"
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", cfg.RedisConfig.Address)
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", cfg.RedisConfig.DB)
	cfg.RedisConfig.TTL = getEnvDurationOrDefault("REDIS_TTL", cfg.RedisConfig.TTL)

	// Database
	cfg.DatabaseConfig.Enabled = getEnvOrDefault("DB_ENABLED", boolString(cfg.DatabaseConfig.Enabled)) == "true"
	cfg.DatabaseConfig.Host = getEnvOrDefault("DB_HOST", cfg.DatabaseConfig.Host)
	cfg.DatabaseConfig.Port = getEnvIntOrDefault("DB_PORT", cfg.DatabaseConfig.Port)
	cfg.DatabaseConfig.User = getEnvOrDefault("DB_USER", cfg.DatabaseConfig.User)
	cfg.DatabaseConfig.Password = getEnvOrDefault("DB_PASSWORD", cfg.DatabaseConfig.Password)
	cfg.DatabaseConfig.Database = getEnvOrDefault("DB_NAME", cfg.DatabaseConfig.Database)
	cfg.DatabaseConfig.SSLMode = getEnvOrDefault("DB_SSL_MODE", cfg.DatabaseConfig.SSLMode)

	// Logging
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", cfg.LoggingConfig.Level)
	cfg.LoggingConfig.Format = getEnvOrDefault("LOG_FORMAT", cfg.LoggingConfig.Format)
	cfg.LoggingConfig.Output = getEnvOrDefault("LOG_OUTPUT", cfg.LoggingConfig.Output)
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := defaults()
	if err := json.Unmarshal(file, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
