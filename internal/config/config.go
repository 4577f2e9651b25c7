package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of the service.
// Values are read by viper from an optional app.env file and the environment.
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	Port        string `mapstructure:"PORT"`

	DBDriver string `mapstructure:"DB_DRIVER"` // sqlite | postgres
	DBSource string `mapstructure:"DB_SOURCE"` // file path or postgres URL
	SeedPath string `mapstructure:"SEED_PATH"`

	DistanceProvider  string        `mapstructure:"DISTANCE_PROVIDER"` // ors | osrm | haversine
	ORSAPIKey         string        `mapstructure:"ORS_API_KEY"`
	ORSBaseURL        string        `mapstructure:"ORS_BASE_URL"`
	OSRMBaseURL       string        `mapstructure:"OSRM_BASE_URL"`
	ProviderTimeout   time.Duration `mapstructure:"PROVIDER_TIMEOUT"`
	ProviderRateLimit float64       `mapstructure:"PROVIDER_RATE_LIMIT"` // requests per second

	OptimizeTimeout time.Duration `mapstructure:"OPTIMIZE_TIMEOUT"`

	GAPopulation    int     `mapstructure:"GA_POPULATION"`
	GAGenerations   int     `mapstructure:"GA_GENERATIONS"`
	GAMutationRate  float64 `mapstructure:"GA_MUTATION_RATE"`
	GACrossoverRate float64 `mapstructure:"GA_CROSSOVER_RATE"`
	GAElitismRate   float64 `mapstructure:"GA_ELITISM_RATE"`
	GAWorkers       int     `mapstructure:"GA_WORKERS"`

	ResultSink    string `mapstructure:"RESULT_SINK"` // none | sql | redis
	RedisAddress  string `mapstructure:"REDIS_ADDRESS"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisStream   string `mapstructure:"REDIS_STREAM"`
	SinkQueueSize int    `mapstructure:"SINK_QUEUE_SIZE"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_SOURCE", "data/app.db")
	v.SetDefault("SEED_PATH", "data/seeds/deliveries.json")
	v.SetDefault("DISTANCE_PROVIDER", "haversine")
	// Keys without a useful default are still registered so AutomaticEnv
	// feeds them into Unmarshal.
	v.SetDefault("ORS_API_KEY", "")
	v.SetDefault("ORS_BASE_URL", "https://api.openrouteservice.org")
	v.SetDefault("OSRM_BASE_URL", "https://router.project-osrm.org")
	v.SetDefault("PROVIDER_TIMEOUT", 5*time.Second)
	v.SetDefault("PROVIDER_RATE_LIMIT", 1.0)
	v.SetDefault("OPTIMIZE_TIMEOUT", 30*time.Second)
	v.SetDefault("GA_POPULATION", 100)
	v.SetDefault("GA_GENERATIONS", 500)
	v.SetDefault("GA_MUTATION_RATE", 0.01)
	v.SetDefault("GA_CROSSOVER_RATE", 0.7)
	v.SetDefault("GA_ELITISM_RATE", 0.1)
	v.SetDefault("GA_WORKERS", 0)
	v.SetDefault("RESULT_SINK", "none")
	v.SetDefault("REDIS_ADDRESS", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_STREAM", "route_optimizations")
	v.SetDefault("SINK_QUEUE_SIZE", 256)
}

// LoadConfig reads configuration from path/app.env (optional) and the environment.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("load config: read app.env: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: unmarshal: %w", err)
	}

	cfg.RedisPassword = trimOptionalQuotes(cfg.RedisPassword)
	cfg.ORSAPIKey = trimOptionalQuotes(cfg.ORSAPIKey)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}

	switch c.DistanceProvider {
	case "ors":
		if strings.TrimSpace(c.ORSAPIKey) == "" {
			return errors.New("ORS_API_KEY is required when DISTANCE_PROVIDER=ors")
		}
	case "osrm", "haversine":
	default:
		return fmt.Errorf("DISTANCE_PROVIDER must be ors, osrm or haversine, got %q", c.DistanceProvider)
	}

	switch c.ResultSink {
	case "none", "sql":
	case "redis":
		if strings.TrimSpace(c.RedisAddress) == "" {
			return errors.New("REDIS_ADDRESS is required when RESULT_SINK=redis")
		}
	default:
		return fmt.Errorf("RESULT_SINK must be none, sql or redis, got %q", c.ResultSink)
	}

	if c.ProviderTimeout <= 0 || c.OptimizeTimeout <= 0 {
		return errors.New("PROVIDER_TIMEOUT and OPTIMIZE_TIMEOUT must be positive")
	}
	return nil
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func trimOptionalQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
