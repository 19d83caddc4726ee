package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	AuthJWTSecret    string
	ReferralLinkBase string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	RateLimit RateLimitConfig
	Ops       OpsConfig
}

// RateLimitConfig gates the public session endpoints.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SessionRate  float64
	SessionBurst int
}

// OpsConfig configures the optional usage metrics pusher.
type OpsConfig struct {
	MetricsEnabled  bool
	MetricsExporter string
	MetricsEndpoint string
	MetricsToken    string
	PushInterval    int
}

// Load reads configuration from the environment and an optional .env file.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_SERVICE", "dermalens")
	v.SetDefault("APP_VERSION", "0.1.0")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("REFERRAL_LINK_BASE", "https://dermalens.app/quiz?ref=")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4317")
	v.SetDefault("DATABASE_TYPE", "postgres")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", "5432")
	v.SetDefault("DATABASE_NAME", "dermalens")
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "postgres")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_IDLE_CONN", 5)
	v.SetDefault("DATABASE_MAX_OPEN_CONN", 25)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", 300)
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_REDIS_ADDR", "")
	v.SetDefault("RATE_LIMIT_REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_SESSION_RATE", 5.0)
	v.SetDefault("RATE_LIMIT_SESSION_BURST", 20)
	v.SetDefault("OPS_METRICS_ENABLED", false)
	v.SetDefault("OPS_METRICS_EXPORTER", "")
	v.SetDefault("OPS_METRICS_ENDPOINT", "")
	v.SetDefault("OPS_METRICS_PUSH_INTERVAL", 60)

	return Config{
		AppName:     v.GetString("APP_SERVICE"),
		AppVersion:  v.GetString("APP_VERSION"),
		Environment: v.GetString("ENVIRONMENT"),

		AuthJWTSecret:    strings.TrimSpace(v.GetString("AUTH_JWT_SECRET")),
		ReferralLinkBase: strings.TrimSpace(v.GetString("REFERRAL_LINK_BASE")),

		OTLPEndpoint: v.GetString("OTLP_ENDPOINT"),

		DBType:            v.GetString("DATABASE_TYPE"),
		DBHost:            v.GetString("DATABASE_HOST"),
		DBPort:            v.GetString("DATABASE_PORT"),
		DBName:            v.GetString("DATABASE_NAME"),
		DBUser:            v.GetString("DATABASE_USER"),
		DBPassword:        v.GetString("DATABASE_PASSWORD"),
		DBSSLMode:         v.GetString("DATABASE_SSLMODE"),
		DBMaxIdleConn:     v.GetInt("DATABASE_MAX_IDLE_CONN"),
		DBMaxOpenConn:     v.GetInt("DATABASE_MAX_OPEN_CONN"),
		DBConnMaxLifetime: v.GetInt("DATABASE_CONN_MAX_LIFETIME"),

		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			RedisAddr:     strings.TrimSpace(v.GetString("RATE_LIMIT_REDIS_ADDR")),
			RedisPassword: v.GetString("RATE_LIMIT_REDIS_PASSWORD"),
			RedisDB:       v.GetInt("RATE_LIMIT_REDIS_DB"),
			SessionRate:   v.GetFloat64("RATE_LIMIT_SESSION_RATE"),
			SessionBurst:  v.GetInt("RATE_LIMIT_SESSION_BURST"),
		},
		Ops: OpsConfig{
			MetricsEnabled:  v.GetBool("OPS_METRICS_ENABLED"),
			MetricsExporter: strings.ToLower(strings.TrimSpace(v.GetString("OPS_METRICS_EXPORTER"))),
			MetricsEndpoint: strings.TrimSpace(v.GetString("OPS_METRICS_ENDPOINT")),
			MetricsToken:    strings.TrimSpace(v.GetString("OPS_METRICS_TOKEN")),
			PushInterval:    v.GetInt("OPS_METRICS_PUSH_INTERVAL"),
		},
	}
}

// IsProduction reports whether the app runs with production hardening.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// Module provides configuration to the fx graph.
var Module = fx.Module("config",
	fx.Provide(Load),
)
