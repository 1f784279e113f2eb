package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`
	RedisOTPDB    int    `mapstructure:"REDIS_OTP_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Cart snapshots and booking drafts.
	CartTTL  time.Duration `mapstructure:"CART_TTL"`
	DraftTTL time.Duration `mapstructure:"DRAFT_TTL"`

	// Google Maps API Key.
	GoogleAPIKey string `mapstructure:"GOOGLE_API_KEY"`

	// Appointment/payment provider.
	ProviderBaseURL string        `mapstructure:"PROVIDER_BASE_URL"`
	ProviderAPIKey  string        `mapstructure:"PROVIDER_API_KEY"`
	ProviderTimeout time.Duration `mapstructure:"PROVIDER_TIMEOUT"`

	// "provider" posts the envelope to the provider, "stripe" opens a Stripe checkout session.
	PaymentGateway   string `mapstructure:"PAYMENT_GATEWAY"`
	StripeKey        string `mapstructure:"STRIPE_KEY"`
	StripeSuccessURL string `mapstructure:"STRIPE_SUCCESS_URL"`
	StripeCancelURL  string `mapstructure:"STRIPE_CANCEL_URL"`

	// CRM smart form.
	CRMFormURL    string `mapstructure:"CRM_FORM_URL"`
	CRMAssetKey   string `mapstructure:"CRM_ASSET_KEY"`
	CRMEntityType string `mapstructure:"CRM_ENTITY_TYPE"`

	// Lab test search.
	SearchURL      string        `mapstructure:"SEARCH_URL"`
	SearchDebounce time.Duration `mapstructure:"SEARCH_DEBOUNCE"`

	// IP lookup used for the default city.
	GeoIPURL string `mapstructure:"GEOIP_URL"`
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
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("REDIS_OTP_DB", 2)
	viper.SetDefault("REDIS_QUEUE_DB", 3)
	viper.SetDefault("CART_TTL", "720h")
	viper.SetDefault("DRAFT_TTL", "24h")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "labbook")
	viper.SetDefault("GOOGLE_API_KEY", "")
	viper.SetDefault("PROVIDER_BASE_URL", "")
	viper.SetDefault("PROVIDER_API_KEY", "")
	viper.SetDefault("PROVIDER_TIMEOUT", "20s")
	viper.SetDefault("PAYMENT_GATEWAY", "provider")
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("STRIPE_SUCCESS_URL", "")
	viper.SetDefault("STRIPE_CANCEL_URL", "")
	viper.SetDefault("CRM_FORM_URL", "")
	viper.SetDefault("CRM_ASSET_KEY", "")
	viper.SetDefault("CRM_ENTITY_TYPE", "Contact")
	viper.SetDefault("SEARCH_URL", "")
	viper.SetDefault("SEARCH_DEBOUNCE", "300ms")
	viper.SetDefault("GEOIP_URL", "https://ipapi.co")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
