package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config keeps runtime settings for the service, the bot and the CLI client.
type Config struct {
	Host           string
	Port           string
	DatabaseURL    string
	JWTSecret      string
	TokenTTL       time.Duration
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string
	AuditInterval  time.Duration
	ReminderWindow time.Duration
	TelegramToken  string
	APIBaseURL     string
	APIToken       string
}

// Addr is the listen address of the HTTP server.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// RequireSecret fails when no JWT secret is configured.
func (c Config) RequireSecret() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

// Load reads configuration from a .env file, the environment and an optional
// config file, with sane defaults. file may be empty.
func Load(file string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", file, err)
		}
	}

	cfg := Config{
		Host:           strings.TrimSpace(v.GetString("host")),
		Port:           strings.TrimSpace(v.GetString("port")),
		DatabaseURL:    strings.TrimSpace(v.GetString("database_url")),
		JWTSecret:      strings.TrimSpace(v.GetString("jwt_secret")),
		TokenTTL:       v.GetDuration("token_ttl"),
		RequestTimeout: v.GetDuration("request_timeout"),
		LogLevel:       v.GetString("log_level"),
		LogFormat:      v.GetString("log_format"),
		AuditInterval:  v.GetDuration("audit_interval"),
		ReminderWindow: v.GetDuration("reminder_window"),
		TelegramToken:  strings.TrimSpace(v.GetString("telegram_token")),
		APIBaseURL:     strings.TrimRight(strings.TrimSpace(v.GetString("api_base_url")), "/"),
		APIToken:       strings.TrimSpace(v.GetString("api_token")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "yourday.db"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.ReminderWindow <= 0 {
		cfg.ReminderWindow = 24 * time.Hour
	}
	if cfg.AuditInterval < 0 {
		return cfg, fmt.Errorf("AUDIT_INTERVAL must not be negative")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", "3001")
	v.SetDefault("database_url", "yourday.db")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", "168h")
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("audit_interval", "1h")
	v.SetDefault("reminder_window", "24h")
	v.SetDefault("telegram_token", "")
	v.SetDefault("api_base_url", "http://localhost:3001/api")
	v.SetDefault("api_token", "")
}
