package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Auth     AuthConfig     `yaml:"auth"`
	Booking  BookingConfig  `yaml:"booking"`
	Email    EmailConfig    `yaml:"email"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address               string `yaml:"address" env:"HTTP_ADDRESS" env-default:":3000"`
	SwaggerEnabled        bool   `yaml:"swagger_enabled" env:"HTTP_SWAGGER_ENABLED"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds" env:"HTTP_REQUEST_TIMEOUT_SECONDS" env-default:"15"`
}

func (h HTTPConfig) RequestTimeout() time.Duration {
	return time.Duration(h.RequestTimeoutSeconds) * time.Second
}

// GRPCConfig controls the gRPC listener. When enabled, the HTTP server also
// serves a gateway to it under /v1.
type GRPCConfig struct {
	Enabled bool   `yaml:"enabled" env:"GRPC_ENABLED"`
	Address string `yaml:"address" env:"GRPC_ADDRESS" env-default:":50051"`
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	Driver      string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	Host        string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port        int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User        string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password    string `yaml:"password" env:"DB_PASSWORD" env-default:"postgres"`
	Name        string `yaml:"name" env:"DB_NAME" env-default:"happyflights"`
	SSLMode     string `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`
	MaxConns    int32  `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"25"`
	MinConns    int32  `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"5"`
	AutoMigrate bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s timezone=UTC", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED"`
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type KafkaConfig struct {
	Enabled            bool     `yaml:"enabled" env:"KAFKA_ENABLED"`
	Brokers            []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	NotificationsTopic string   `yaml:"notifications_topic" env:"KAFKA_NOTIFICATIONS_TOPIC" env-default:"ticket-notifications"`
	GroupID            string   `yaml:"group_id" env:"KAFKA_GROUP_ID" env-default:"notification-worker"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
}

type BookingConfig struct {
	FlightsCacheTTL int `yaml:"flights_cache_ttl_seconds" env:"BOOKING_FLIGHTS_CACHE_TTL_SECONDS" env-default:"30"`
	IdempotencyTTL  int `yaml:"idempotency_ttl_seconds" env:"BOOKING_IDEMPOTENCY_TTL_SECONDS" env-default:"86400"`
}

func (b BookingConfig) FlightsCacheDuration() time.Duration {
	return time.Duration(b.FlightsCacheTTL) * time.Second
}

func (b BookingConfig) IdempotencyDuration() time.Duration {
	return time.Duration(b.IdempotencyTTL) * time.Second
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host" env:"EMAIL_SMTP_HOST"`
	SMTPPort     int    `yaml:"smtp_port" env:"EMAIL_SMTP_PORT" env-default:"587"`
	SMTPUser     string `yaml:"smtp_user" env:"EMAIL_USER"`
	SMTPPassword string `yaml:"smtp_password" env:"EMAIL_PASS"`
	From         string `yaml:"from" env:"EMAIL_FROM" env-default:"HappyFlights <noreply@happyflights.com>"`
	BaseURL      string `yaml:"base_url" env:"EMAIL_BASE_URL" env-default:"http://localhost:3000"`
}

// WorkerConfig drives the notification worker. A zero backfill interval
// disables the periodic snapshot backfill.
type WorkerConfig struct {
	BackfillIntervalMinutes int `yaml:"backfill_interval_minutes" env:"WORKER_BACKFILL_INTERVAL_MINUTES"`
}

func (w WorkerConfig) BackfillInterval() time.Duration {
	return time.Duration(w.BackfillIntervalMinutes) * time.Minute
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// LoadConfig reads the YAML file at path and then applies environment overrides
// and defaults. A missing file is not an error: the environment alone is used.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Worker.BackfillIntervalMinutes < 0 {
		return errors.New("worker.backfill_interval_minutes must not be negative")
	}
	if c.GRPC.Enabled && c.GRPC.Address == "" {
		return errors.New("grpc.address is required when grpc is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers is required when kafka is enabled")
	}
	return nil
}
