package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SecurityConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
}

type OTPConfig struct {
	TTLMinutes int
}

// TTL returns the recovery-code lifetime as a duration.
func (c OTPConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

type FederationConfig struct {
	ClientID string
	Issuer   string
}

type MailConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	SendTimeout time.Duration
}

type RateLimitConfig struct {
	MaxAttempts int
	Window      time.Duration
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Security         SecurityConfig
	OTP              OTPConfig
	Federation       FederationConfig
	Mail             MailConfig
	RateLimit        RateLimitConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("CLASSWARE")
	v.AutomaticEnv()

	// Deployment-standard names recognized alongside the prefixed form.
	_ = v.BindEnv("security.tokensecret", "CLASSWARE_SECURITY_TOKENSECRET", "TOKEN_SECRET")
	_ = v.BindEnv("otp.ttlminutes", "CLASSWARE_OTP_TTLMINUTES", "OTP_TTL_MINUTES")
	_ = v.BindEnv("federation.clientid", "CLASSWARE_FEDERATION_CLIENTID", "IDENTITY_PROVIDER_CLIENT_ID")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("security.tokenttl", "24h")

	v.SetDefault("otp.ttlminutes", 10)

	v.SetDefault("federation.issuer", "https://accounts.google.com")

	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.sendtimeout", "10s")

	v.SetDefault("ratelimit.maxattempts", 10)
	v.SetDefault("ratelimit.window", "5m")
}
