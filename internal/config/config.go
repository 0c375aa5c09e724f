package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	MailDriverSMTP = "smtp"
	MailDriverLog  = "log"
)

type Config struct {
	DBDriver   string `mapstructure:"DB_DRIVER"`
	Host       string `mapstructure:"DB_HOST"`
	User       string `mapstructure:"DB_USER"`
	Password   string `mapstructure:"DB_PASSWORD"`
	Name       string `mapstructure:"DB_NAME"`
	DBPort     string `mapstructure:"DB_PORT"`
	SSLMode    string `mapstructure:"DB_SSLMODE"`
	SQLitePath string `mapstructure:"SQLITE_PATH"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	JWTKey   string        `mapstructure:"JWT_KEY"`
	TokenTTL time.Duration `mapstructure:"TOKEN_TTL"`

	MailDriver   string `mapstructure:"MAIL_DRIVER"`
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`

	OTPNotifyTimeout time.Duration `mapstructure:"OTP_NOTIFY_TIMEOUT"`
	OTPMaxAttempts   int           `mapstructure:"OTP_MAX_ATTEMPTS"`

	ServerPort   string `mapstructure:"SERVER_PORT"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	AuthRequired bool   `mapstructure:"AUTH_REQUIRED"`
	Environment  string `mapstructure:"ENVIRONMENT"`
}

var defaults = map[string]any{
	"DB_DRIVER":          DriverPostgres,
	"DB_HOST":            "",
	"DB_USER":            "",
	"DB_PASSWORD":        "",
	"DB_NAME":            "",
	"DB_PORT":            "5432",
	"DB_SSLMODE":         "disable",
	"SQLITE_PATH":        "sendit.db",
	"REDIS_ADDR":         "localhost:6379",
	"REDIS_PASSWORD":     "",
	"REDIS_DB":           0,
	"JWT_KEY":            "",
	"TOKEN_TTL":          time.Hour,
	"MAIL_DRIVER":        MailDriverSMTP,
	"SMTP_HOST":          "",
	"SMTP_PORT":          465,
	"SMTP_USER":          "",
	"SMTP_PASSWORD":      "",
	"MAIL_FROM":          "",
	"OTP_NOTIFY_TIMEOUT": 10 * time.Second,
	"OTP_MAX_ATTEMPTS":   5,
	"SERVER_PORT":        "8000",
	"LOG_LEVEL":          "info",
	"AUTH_REQUIRED":      false,
	"ENVIRONMENT":        "production",
}

// Load reads configuration from the given .env file (which may be absent)
// and the process environment. Environment variables win.
func Load(file string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigFile(file)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case DriverPostgres:
		if c.User == "" {
			return fmt.Errorf("DB_USER is required")
		}

		if c.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}

		if c.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}

		if c.DBPort == "" {
			return fmt.Errorf("DB_PORT is required")
		}

		if c.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	if c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	switch c.MailDriver {
	case MailDriverSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required")
		}
		if c.SMTPUser == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP_USER and SMTP_PASSWORD are required")
		}
	case MailDriverLog:
	default:
		return fmt.Errorf("unsupported MAIL_DRIVER %q", c.MailDriver)
	}

	if c.OTPMaxAttempts <= 0 {
		return fmt.Errorf("OTP_MAX_ATTEMPTS must be positive")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.DBPort, c.SSLMode)
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
