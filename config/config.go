package config

import (
	"log"
	"strings"
	"time"
	_ "time/tzdata" // APP_TIMEZONE resolves on hosts without zoneinfo

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	CORSOrigins       string `mapstructure:"CORS_ORIGINS"`

	// Remote salon backend.
	BackendBaseURL      string        `mapstructure:"BACKEND_BASE_URL"`
	BackendTimeout      time.Duration `mapstructure:"BACKEND_TIMEOUT"`
	BackendServiceToken string        `mapstructure:"BACKEND_SERVICE_TOKEN"`

	// Redis configuration.
	RedisAddr            string        `mapstructure:"REDIS_ADDR"`
	RedisPassword        string        `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB         int           `mapstructure:"REDIS_CACHE_DB"`
	RedisReminderQueueDB int           `mapstructure:"REDIS_REMINDER_QUEUE_DB"`
	CatalogCacheTTL      time.Duration `mapstructure:"CATALOG_CACHE_TTL"`

	// Mongo holds finished flow records.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Booking flow. Appointment dates and times are wall-clock in AppTimezone.
	FlowTTL      time.Duration `mapstructure:"FLOW_TTL"`
	ReminderLead time.Duration `mapstructure:"REMINDER_LEAD"`
	AppTimezone  string        `mapstructure:"APP_TIMEZONE"`

	// Payments.
	PaymentProvider string `mapstructure:"PAYMENT_PROVIDER"`
	PaymentCurrency string `mapstructure:"PAYMENT_CURRENCY"`
	StripeKey       string `mapstructure:"STRIPE_KEY"`
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

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("BACKEND_BASE_URL", "http://localhost:9000/api")
	v.SetDefault("BACKEND_TIMEOUT", "10s")
	v.SetDefault("BACKEND_SERVICE_TOKEN", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_REMINDER_QUEUE_DB", 3)
	v.SetDefault("CATALOG_CACHE_TTL", "5m")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "salonbook")
	v.SetDefault("FLOW_TTL", "30m")
	v.SetDefault("REMINDER_LEAD", "2h")
	v.SetDefault("APP_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("PAYMENT_PROVIDER", "passthrough")
	v.SetDefault("PAYMENT_CURRENCY", "INR")
	v.SetDefault("STRIPE_KEY", "")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// Location returns the zone salon appointments are booked in. An unknown
// APP_TIMEZONE falls back to UTC.
func Location() *time.Location {
	name := strings.TrimSpace(AppConfig.AppTimezone)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("Invalid APP_TIMEZONE %q, using UTC: %v", name, err)
		return time.UTC
	}
	return loc
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(AppConfig.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
