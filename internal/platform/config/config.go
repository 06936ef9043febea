// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	pstrings "contactbook/pkg/platform/strings"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverLocal    = "local"
	DriverRemote   = "remote"
)

// Config is the full process configuration.
type Config struct {
	Environment string `validate:"oneof=development production test"`
	PhonePolicy string `validate:"oneof=strict lenient"`
	Server      Server
	Store       Store
	Redis       RedisConfig
	Events      Events
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string        `validate:"required"`
	ReadHeaderTimeout time.Duration `validate:"gt=0"`
	RequestTimeout    time.Duration `validate:"gt=0"`
	ShutdownTimeout   time.Duration `validate:"gt=0"`
}

// Store selects and configures the contact persistence backend.
type Store struct {
	Driver      string `validate:"oneof=memory postgres redis local remote"`
	DatabaseURL string `validate:"required_if=Driver postgres"`
	LocalPath   string `validate:"required_if=Driver local"`
	RemoteURL   string `validate:"required_if=Driver remote,omitempty,url"`
}

// RedisConfig configures the shared Redis client.
type RedisConfig struct {
	URL          string `validate:"omitempty,url"`
	PoolSize     int    `validate:"gte=0"`
	MinIdleConns int    `validate:"gte=0"`
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Events configures change event delivery. No brokers means events are
// written to the log instead of Kafka.
type Events struct {
	Brokers []string `validate:"dive,hostname_port"`
	Topic   string   `validate:"required"`
}

// KafkaEnabled reports whether brokers are configured.
func (e Events) KafkaEnabled() bool {
	return len(e.Brokers) > 0
}

// IsProduction reports whether the process runs in production.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		c := sl.Current().Interface().(Config)
		if c.Store.Driver == DriverRedis && c.Redis.URL == "" {
			sl.ReportError(c.Redis.URL, "Redis.URL", "Redis.URL", "required_for_redis_store", "")
		}
	}, Config{})
	return v
}

// FromEnv builds the configuration from process environment variables.
func FromEnv() (Config, error) {
	return Load(os.Getenv)
}

// Load builds the configuration using getenv for lookups and validates it.
func Load(getenv func(string) string) (Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	var errs []error
	duration := func(key string, fallback time.Duration) time.Duration {
		raw := getenv(key)
		if raw == "" {
			return fallback
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return fallback
		}
		return d
	}

	cfg := Config{
		Environment: strings.ToLower(env("CONTACTS_ENV", "development")),
		PhonePolicy: strings.ToLower(env("CONTACTS_PHONE_POLICY", "strict")),
		Server: Server{
			Addr:              env("CONTACTS_ADDR", ":8080"),
			ReadHeaderTimeout: duration("CONTACTS_READ_HEADER_TIMEOUT", 5*time.Second),
			RequestTimeout:    duration("CONTACTS_REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout:   duration("CONTACTS_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Store: Store{
			Driver:      strings.ToLower(env("CONTACTS_STORE", DriverMemory)),
			DatabaseURL: env("DATABASE_URL", ""),
			LocalPath:   env("CONTACTS_LOCAL_PATH", "data/contacts.db"),
			RemoteURL:   env("CONTACTS_REMOTE_URL", ""),
		},
		Redis: RedisConfig{
			URL:          env("REDIS_URL", ""),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Events: Events{
			Brokers: pstrings.SplitAndTrim(getenv("KAFKA_BROKERS"), ","),
			Topic:   env("CONTACTS_EVENTS_TOPIC", "contacts.events"),
		},
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the struct tags and cross-field rules.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
