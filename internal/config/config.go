package config

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "EZWALLET"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	// HTTP server
	Port         string
	CookieSecure bool

	// Database
	DatabaseURL string

	// Tokens
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// AMQP events, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string

	// Group invitation emails, disabled when SMTPHost is empty
	SMTPHost      string
	SMTPPort      string
	EmailAddress  string
	EmailPassword string
}

// Load reads an optional .env file and then resolves every setting through viper,
// so EZWALLET_PORT and PORT are both accepted.
func Load(v *viper.Viper) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Error loading .env file, continuing with system environment variables")
	}

	if v == nil {
		v = viper.New()
	}
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Plain names are kept for existing .env files.
	for _, key := range []string{"port", "db_connection_string", "jwt_secret", "amqp_url", "smtp_host", "email_address", "email_password"} {
		_ = v.BindEnv(key, envPrefix+"_"+strings.ToUpper(key), strings.ToUpper(key))
	}

	cfg := &Config{
		Port:            v.GetString("port"),
		CookieSecure:    v.GetBool("cookie_secure"),
		DatabaseURL:     v.GetString("db_connection_string"),
		JWTSecret:       v.GetString("jwt_secret"),
		AccessTokenTTL:  v.GetDuration("access_token_ttl"),
		RefreshTokenTTL: v.GetDuration("refresh_token_ttl"),
		LogLevel:        v.GetString("log_level"),
		LogFormat:       v.GetString("log_format"),
		AMQPURL:         v.GetString("amqp_url"),
		AMQPExchange:    v.GetString("amqp_exchange"),
		SMTPHost:        v.GetString("smtp_host"),
		SMTPPort:        v.GetString("smtp_port"),
		EmailAddress:    v.GetString("email_address"),
		EmailPassword:   v.GetString("email_password"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("access_token_ttl", time.Hour)
	v.SetDefault("refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("amqp_exchange", "ezwallet")
	v.SetDefault("smtp_port", "587")
}

// Validate collects every problem instead of stopping at the first one.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DatabaseURL == "" {
		problems = append(problems, "no DB_CONNECTION_STRING provided")
	}
	if c.JWTSecret == "" {
		problems = append(problems, "no JWT_SECRET provided")
	}
	if c.AccessTokenTTL <= 0 {
		problems = append(problems, "access token ttl must be positive")
	}
	if c.RefreshTokenTTL < c.AccessTokenTTL {
		problems = append(problems, "refresh token ttl must not be shorter than access token ttl")
	}

	if c.SMTPHost != "" && c.EmailAddress == "" {
		problems = append(problems, "no EMAIL_ADDRESS provided for SMTP_HOST")
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be console or json", c.LogFormat))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
