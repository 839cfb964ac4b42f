package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`

	// MongoDB configuration.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Resource discovery upstream.
	DiscoveryBaseURL string        `mapstructure:"DISCOVERY_BASE_URL"`
	DiscoveryTimeout time.Duration `mapstructure:"DISCOVERY_TIMEOUT"`
	// DiscoveryPaths overrides the upstream path per quiz domain, e.g. "investor=investor-resources/,sales=legal-resources/".
	DiscoveryPaths string `mapstructure:"DISCOVERY_PATHS"`

	// Network membership.
	NetworkSource   string `mapstructure:"NETWORK_SOURCE"`
	NetworkAPIURL   string `mapstructure:"NETWORK_API_URL"`
	NetworkAPIToken string `mapstructure:"NETWORK_API_TOKEN"`
	// RefreshQueue selects how sign-in refreshes run: "inline" or "asynq" (retried via Redis).
	RefreshQueue    string `mapstructure:"REFRESH_QUEUE"`
	RefreshMaxRetry int    `mapstructure:"REFRESH_MAX_RETRY"`

	// Session gate.
	SessionBackend string        `mapstructure:"SESSION_BACKEND"`
	LogoutDelay    time.Duration `mapstructure:"LOGOUT_DELAY"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "circl")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_SESSION_DB", 1)
	v.SetDefault("REDIS_QUEUE_DB", 2)
	v.SetDefault("DISCOVERY_BASE_URL", "https://circlapp.online/api/")
	v.SetDefault("DISCOVERY_TIMEOUT", "15s")
	v.SetDefault("DISCOVERY_PATHS", "")
	v.SetDefault("NETWORK_SOURCE", "remote")
	v.SetDefault("NETWORK_API_URL", "https://circlapp.online/api/")
	v.SetDefault("NETWORK_API_TOKEN", "")
	v.SetDefault("REFRESH_QUEUE", "inline")
	v.SetDefault("REFRESH_MAX_RETRY", 3)
	v.SetDefault("SESSION_BACKEND", "redis")
	v.SetDefault("LOGOUT_DELAY", "300ms")
}

// Load reads configuration into a fresh Config without touching AppConfig.
func Load(v *viper.Viper) (Config, error) {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	// Automatically use environment variables where available.
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ErrMissingJWTSecret is returned when production runs without a signing secret.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set in production")

// Validate rejects settings that are unsafe for the configured environment.
func (c Config) Validate() error {
	if c.Env == "production" && c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}

func LoadConfig() {
	// A local .env only fills variables the environment does not already set.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env")
	}
	cfg, err := Load(viper.GetViper())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

// PathOverrides parses DiscoveryPaths into a domain → path map. Malformed pairs are skipped.
func (c Config) PathOverrides() map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(c.DiscoveryPaths, ",") {
		domain, path, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || domain == "" || path == "" {
			continue
		}
		out[strings.TrimSpace(domain)] = strings.TrimSpace(path)
	}
	return out
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
