package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Storage. STORE_BACKEND is "mongo" or "memory".
	StoreBackend string `mapstructure:"STORE_BACKEND"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr            string        `mapstructure:"REDIS_ADDR"`
	RedisPassword        string        `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB         int           `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB         int           `mapstructure:"REDIS_QUEUE_DB"`
	AvailabilityCacheTTL time.Duration `mapstructure:"AVAILABILITY_CACHE_TTL"`

	// Scheduling.
	Timezone           string `mapstructure:"TIMEZONE"`
	MatcherConcurrency int    `mapstructure:"MATCHER_CONCURRENCY"`
	AuditWorkers       int    `mapstructure:"AUDIT_WORKERS"`
	MaxRecurrenceYears int    `mapstructure:"MAX_RECURRENCE_YEARS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("STORE_BACKEND", "mongo")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "tutordesk")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("AVAILABILITY_CACHE_TTL", "10m")
	viper.SetDefault("TIMEZONE", "UTC")
	viper.SetDefault("MATCHER_CONCURRENCY", 8)
	viper.SetDefault("AUDIT_WORKERS", 2)
	viper.SetDefault("MAX_RECURRENCE_YEARS", 5)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := AppConfig.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
}

// Validate rejects settings the server must not start with.
func (c Config) Validate() error {
	if c.Env == "production" && c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.MaxRecurrenceYears < 0 {
		return fmt.Errorf("MAX_RECURRENCE_YEARS must not be negative, got %d", c.MaxRecurrenceYears)
	}
	return nil
}

// MaxRecurrenceHorizon is how far past its start a recurring booking may repeat.
func MaxRecurrenceHorizon() time.Duration {
	years := AppConfig.MaxRecurrenceYears
	if years <= 0 {
		years = 5
	}
	return time.Duration(years) * 366 * 24 * time.Hour
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// UsesMemoryStore reports whether repositories run in process instead of against MongoDB.
func UsesMemoryStore() bool {
	return AppConfig.StoreBackend == "memory"
}

// Location resolves TIMEZONE, falling back to UTC when it is unknown.
func Location() *time.Location {
	if AppConfig.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(AppConfig.Timezone)
	if err != nil {
		log.Printf("Unknown TIMEZONE %q, using UTC", AppConfig.Timezone)
		return time.UTC
	}
	return loc
}
