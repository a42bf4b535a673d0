package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Email        EmailConfig
	Confirmation ConfirmationConfig
	Redis        RedisConfig
	CORS         CORSConfig
}

type AppConfig struct {
	Name            string
	Env             string
	Port            string
	Debug           bool
	LogPath         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	SSLMode     string
	MaxConns    int32
	AutoMigrate bool
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Timeout  time.Duration
}

// Enabled reports whether an SMTP relay is configured.
func (c EmailConfig) Enabled() bool {
	return c.Host != ""
}

// ConfirmationConfig controls the signup confirmation code.
// TTLMinutes == 0 keeps a code valid until it is reissued.
type ConfirmationConfig struct {
	Length     int
	TTLMinutes int
	SingleUse  bool
}

func (c ConfirmationConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether revoked tokens should be kept in redis instead of memory.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type CORSConfig struct {
	AllowedOrigins []string
}

// LoadConfig reads optional dotenv files and then the process environment.
// With no paths it tries ".env" and "envs/.env.<APP_ENV>".
func LoadConfig(paths ...string) (*Config, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
		if env := os.Getenv("APP_ENV"); env != "" {
			paths = append(paths, fmt.Sprintf("envs/.env.%s", env))
		}
	}
	for _, p := range paths {
		// godotenv never overrides variables already set in the environment
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", p, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:            v.GetString("APP_NAME"),
			Env:             v.GetString("APP_ENV"),
			Port:            v.GetString("PORT"),
			Debug:           v.GetBool("DEBUG"),
			LogPath:         v.GetString("LOG_PATH"),
			ReadTimeout:     v.GetDuration("HTTP_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("HTTP_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("HTTP_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetString("DB_PORT"),
			Name:        v.GetString("DB_NAME"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASS"),
			SSLMode:     v.GetString("DB_SSLMODE"),
			MaxConns:    v.GetInt32("DB_MAX_CONNS"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("JWT_SECRET"),
			Issuer:     v.GetString("JWT_ISSUER"),
			AccessTTL:  time.Duration(v.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
			RefreshTTL: time.Duration(v.GetInt("JWT_REFRESH_EXPIRY_HOURS")) * time.Hour,
		},
		Email: EmailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASS"),
			From:     v.GetString("EMAIL_FROM"),
			Timeout:  v.GetDuration("SMTP_TIMEOUT"),
		},
		Confirmation: ConfirmationConfig{
			Length:     v.GetInt("CONFIRMATION_CODE_LENGTH"),
			TTLMinutes: v.GetInt("CONFIRMATION_CODE_TTL_MINUTES"),
			SingleUse:  v.GetBool("CONFIRMATION_CODE_SINGLE_USE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "yamdb-api")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("HTTP_READ_TIMEOUT", "15s")
	v.SetDefault("HTTP_WRITE_TIMEOUT", "15s")
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("JWT_ISSUER", "yamdb-api")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("JWT_REFRESH_EXPIRY_HOURS", 168)

	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("EMAIL_FROM", "noreply@yamdb.local")
	v.SetDefault("SMTP_TIMEOUT", "10s")

	v.SetDefault("CONFIRMATION_CODE_LENGTH", 10)
	v.SetDefault("CONFIRMATION_CODE_TTL_MINUTES", 0)
	v.SetDefault("CONFIRMATION_CODE_SINGLE_USE", false)

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
}

// Validate checks values that would otherwise fail later at request time.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		if !c.App.Debug {
			return errors.New("JWT_SECRET is required")
		}
		c.JWT.Secret = "dev_jwt_secret"
	}
	if c.Confirmation.Length < 6 || c.Confirmation.Length > 16 {
		return fmt.Errorf("CONFIRMATION_CODE_LENGTH must be between 6 and 16, got %d", c.Confirmation.Length)
	}
	if c.Confirmation.TTLMinutes < 0 {
		return errors.New("CONFIRMATION_CODE_TTL_MINUTES must not be negative")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
