package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	User         string
	Password     string
	Host         string
	Port         string
	Name         string
	SSLMode      string
	QueryTimeout time.Duration
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

type AdminConfig struct {
	Name     string
	Email    string
	Password string
}

type APNSConfig struct {
	AuthKeyPath string
	KeyID       string
	TeamID      string
	Topic       string
	Production  bool
}

type Config struct {
	Port           string
	LogLevel       string
	Database       DatabaseConfig
	JWT            JWTConfig
	NatsURL        string
	OtelEndpoint   string
	TracingEnabled bool
	// UserAdminRoles restricts user create/update/delete. Empty means any authenticated identity.
	UserAdminRoles []string
	S3             S3Config
	Admin          AdminConfig
	APNS           APNSConfig
}

var ErrMissingSecret = errors.New("JWT_SECRET environment variable is not set")

// Load reads .env.dev when present and then the process environment.
// Environment variables always win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(".env.dev"); err != nil {
		log.Println("No .env.dev file found, reading from environment variables")
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "8001")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_QUERY_TIMEOUT", "5s")
	v.SetDefault("JWT_TTL", "168h")
	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "jaeger:4317")
	v.SetDefault("TRACING_ENABLED", true)
	v.SetDefault("ADMIN_NAME", "Super Admin")
	v.SetDefault("APNS_MODE", "development")

	for _, key := range []string{
		"DB_USER", "DB_PASSWORD", "DB_NAME", "JWT_SECRET", "USER_ADMIN_ROLES",
		"S3_ENDPOINT", "S3_BUCKET_NAME", "AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
		"S3_USE_PATH_STYLE", "ADMIN_EMAIL", "ADMIN_PASSWORD",
		"APNS_AUTH_KEY_PATH", "APNS_KEY_ID", "APNS_TEAM_ID", "APNS_TOPIC",
	} {
		_ = v.BindEnv(key)
	}
	return v
}

func FromViper(v *viper.Viper) (*Config, error) {
	secret := v.GetString("JWT_SECRET")
	if secret == "" {
		return nil, ErrMissingSecret
	}

	ttl := v.GetDuration("JWT_TTL")
	if ttl <= 0 {
		return nil, fmt.Errorf("invalid JWT_TTL %q", v.GetString("JWT_TTL"))
	}

	return &Config{
		Port:     v.GetString("APP_PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),
		Database: DatabaseConfig{
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetString("DB_PORT"),
			Name:         v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			QueryTimeout: v.GetDuration("DB_QUERY_TIMEOUT"),
		},
		JWT: JWTConfig{
			Secret: secret,
			TTL:    ttl,
		},
		NatsURL:        v.GetString("NATS_URL"),
		OtelEndpoint:   v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TracingEnabled: v.GetBool("TRACING_ENABLED"),
		UserAdminRoles: splitList(v.GetString("USER_ADMIN_ROLES")),
		S3: S3Config{
			Endpoint:     v.GetString("S3_ENDPOINT"),
			Region:       v.GetString("AWS_REGION"),
			Bucket:       v.GetString("S3_BUCKET_NAME"),
			AccessKey:    v.GetString("AWS_ACCESS_KEY_ID"),
			SecretKey:    v.GetString("AWS_SECRET_ACCESS_KEY"),
			UsePathStyle: v.GetBool("S3_USE_PATH_STYLE"),
		},
		Admin: AdminConfig{
			Name:     v.GetString("ADMIN_NAME"),
			Email:    v.GetString("ADMIN_EMAIL"),
			Password: v.GetString("ADMIN_PASSWORD"),
		},
		APNS: APNSConfig{
			AuthKeyPath: v.GetString("APNS_AUTH_KEY_PATH"),
			KeyID:       v.GetString("APNS_KEY_ID"),
			TeamID:      v.GetString("APNS_TEAM_ID"),
			Topic:       v.GetString("APNS_TOPIC"),
			Production:  v.GetString("APNS_MODE") == "production",
		},
	}, nil
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User, c.Database.Password, c.Database.Host, c.Database.Port, c.Database.Name, c.Database.SSLMode,
	)
}

// S3Enabled reports whether enough settings are present to presign uploads.
func (c *Config) S3Enabled() bool {
	return c.S3.Endpoint != "" && c.S3.Bucket != ""
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
