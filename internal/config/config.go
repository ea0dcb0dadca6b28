package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
)

const envPrefix = "JMW_"

type Config struct {
	Primary  Primary        `koanf:"primary"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Paystack PaystackConfig `koanf:"paystack"`
	Retry    RetryConfig    `koanf:"retry"`
	Logger   LoggerConfig   `koanf:"logger"`
	Worker   WorkerConfig   `koanf:"worker"`
	Company  CompanyConfig  `koanf:"company"`
	Tasks    TasksConfig    `koanf:"tasks"`
	Kafka    KafkaConfig    `koanf:"kafka"`
	Redis    RedisConfig    `koanf:"redis"`
	SMTP     SMTPConfig     `koanf:"smtp"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
	// LockTimeout bounds how long a settlement waits on a FOR UPDATE row lock.
	LockTimeout time.Duration `koanf:"lock_timeout"`
}

type RetryConfig struct {
	BaseDelay  time.Duration `koanf:"base_delay"`
	MaxRetries int           `koanf:"max_retries"`
}

// WorkerConfig drives the stale-payment sweeper.
type WorkerConfig struct {
	Interval     time.Duration `koanf:"interval" validate:"required"`
	BatchSize    int           `koanf:"batch_size" validate:"required,min=1"`
	PendingAfter time.Duration `koanf:"pending_after" validate:"required"`
	AbandonAfter time.Duration `koanf:"abandon_after" validate:"required"`
}

// CompanyConfig holds the seller details printed on receipts and the prefix
// used when generating payment references.
type CompanyConfig struct {
	Prefix  string `koanf:"prefix" validate:"required,alphanum,max=10"`
	Name    string `koanf:"name" validate:"required"`
	Address string `koanf:"address"`
	Phone   string `koanf:"phone"`
	Email   string `koanf:"email" validate:"omitempty,email"`
}

type TasksConfig struct {
	Backend   string `koanf:"backend" validate:"required,oneof=memory kafka"`
	Workers   int    `koanf:"workers" validate:"min=1"`
	QueueSize int    `koanf:"queue_size" validate:"min=1"`
}

type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
	GroupID string   `koanf:"group_id"`
}

type RedisConfig struct {
	Addr      string        `koanf:"addr"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db"`
	DedupeTTL time.Duration `koanf:"dedupe_ttl"`
}

type SMTPConfig struct {
	Host     string        `koanf:"host"`
	Port     int           `koanf:"port"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	From     string        `koanf:"from" validate:"omitempty,email"`
	FromName string        `koanf:"from_name"`
	UseTLS   bool          `koanf:"use_tls"`
	StartTLS bool          `koanf:"start_tls"`
	Timeout  time.Duration `koanf:"timeout"`
	Disabled bool          `koanf:"disabled"`
}

func defaults() map[string]any {
	return map[string]any{
		"primary.env":                 "development",
		"server.port":                 "8080",
		"server.read_timeout":         "15s",
		"server.write_timeout":        "30s",
		"server.idle_timeout":         "60s",
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     10,
		"database.max_idle_conns":     2,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.lock_timeout":       "10s",
		"paystack.test_mode":          true,
		"paystack.base_url":           "https://api.paystack.co",
		"paystack.timeout":            "10s",
		"paystack.verify_timeout":     "8s",
		"retry.base_delay":            "500ms",
		"retry.max_retries":           3,
		"logger.level":                "info",
		"logger.format":               "text",
		"worker.interval":             "1m",
		"worker.batch_size":           50,
		"worker.pending_after":        "15m",
		"worker.abandon_after":        "24h",
		"company.prefix":              "JMW",
		"company.name":                "JUME MEGA WEARS & ACCESSORIES",
		"tasks.backend":               "memory",
		"tasks.workers":               4,
		"tasks.queue_size":            256,
		"kafka.topic":                 "jmw.tasks",
		"kafka.group_id":              "jmw-notifier",
		"redis.dedupe_ttl":            "72h",
		"smtp.port":                   587,
		"smtp.start_tls":              true,
		"smtp.timeout":                "15s",
	}
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		logger.Error("failed to load defaults", "error", err)
		return nil, err
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	if err := mainConfig.Validate(); err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

// Validate checks rules that span more than one field.
func (c *Config) Validate() error {
	var errs []error

	if strings.EqualFold(c.Company.Prefix, "ORDER") {
		errs = append(errs, errors.New("company.prefix must not be ORDER"))
	}

	secret, public := c.Paystack.Keys()
	if secret == "" || public == "" {
		mode := "live"
		if c.Paystack.TestMode {
			mode = "test"
		}
		errs = append(errs, fmt.Errorf("paystack %s secret and public keys are required", mode))
	}

	if c.Tasks.Backend == "kafka" {
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka.brokers is required when tasks.backend is kafka"))
		}
		if c.Kafka.Topic == "" {
			errs = append(errs, errors.New("kafka.topic is required when tasks.backend is kafka"))
		}
	}

	if !c.SMTP.Disabled && c.SMTP.Host == "" {
		errs = append(errs, errors.New("smtp.host is required unless smtp.disabled is set"))
	}

	return errors.Join(errs...)
}
