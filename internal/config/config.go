// Package config handles loading and parsing application configuration.
// It supports two sources for the file location (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Every field can additionally be overridden by its env:"..." variable,
// which is how secrets such as SMTP_PASSWORD are meant to be supplied.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root configuration structure.
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-required:"true"`

	Storage      Storage      `yaml:"storage"`
	HTTPServer   HTTPServer   `yaml:"http_server"`
	Auth         Auth         `yaml:"auth"`
	Answers      Answers      `yaml:"answers"`
	Notification Notification `yaml:"notification"`
	CORS         CORS         `yaml:"cors"`
	Seed         Seed         `yaml:"seed"`
}

// Storage selects the persistence backend.
type Storage struct {
	// Driver is "sqlite" (durable) or "memory" (ephemeral).
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	// Path is the filesystem path to the SQLite .db file.
	Path string `yaml:"path" env:"STORAGE_PATH" env-default:"storage/mentorqa.db"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	Addr            string        `yaml:"address"          env:"HTTP_SERVER_ADDR" env-required:"true"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"HTTP_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"HTTP_WRITE_TIMEOUT"    env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"HTTP_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// Auth configures the static bearer-token stub.
type Auth struct {
	AdminToken string `yaml:"admin_token" env:"AUTH_ADMIN_TOKEN" env-default:"dev-token"`
	// BcryptCost is clamped to bcrypt's allowed range.
	BcryptCost int `yaml:"bcrypt_cost" env:"AUTH_BCRYPT_COST" env-default:"10"`
}

// Answers configures the answer submission workflow.
type Answers struct {
	// LockResolved rejects answers for questions that are already Resolved.
	// When false a new answer overwrites the old one and the student is
	// notified again.
	LockResolved bool `yaml:"lock_resolved" env:"ANSWERS_LOCK_RESOLVED"`
	MinLength    int  `yaml:"min_length"    env:"ANSWERS_MIN_LENGTH" env-default:"10"`
}

// Notification configures how students are told their question was answered.
type Notification struct {
	// Provider is "console" (log only) or "smtp".
	Provider        string        `yaml:"provider"         env:"EMAIL_PROVIDER"          env-default:"console"`
	From            string        `yaml:"from"             env:"EMAIL_FROM"              env-default:"noreply@youthsolve.com"`
	ReplyTo         string        `yaml:"reply_to"         env:"EMAIL_REPLY_TO"          env-default:"support@youthsolve.com"`
	Workers         int           `yaml:"workers"          env:"NOTIFY_WORKERS"          env-default:"2"`
	QueueSize       int           `yaml:"queue_size"       env:"NOTIFY_QUEUE_SIZE"       env-default:"100"`
	SendTimeout     time.Duration `yaml:"send_timeout"     env:"NOTIFY_SEND_TIMEOUT"     env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"NOTIFY_SHUTDOWN_TIMEOUT" env-default:"10s"`
	SMTP            SMTP          `yaml:"smtp"`
}

// SMTP holds relay settings used when Provider is "smtp".
type SMTP struct {
	Host     string `yaml:"host"     env:"SMTP_HOST"`
	Port     int    `yaml:"port"     env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USER"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
}

// CORS lists the browser origins allowed to call the API.
type CORS struct {
	Enabled bool     `yaml:"enabled" env:"CORS_ENABLED"`
	Origins []string `yaml:"origins" env:"CORS_ORIGINS" env-separator:","`
}

// Seed controls startup data.
type Seed struct {
	Mentors bool `yaml:"mentors" env:"SEED_MENTORS"`
}

// Load reads the YAML file at path, applies env overrides and defaults,
// and validates the result.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("storage.driver must be sqlite or memory, got %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "sqlite" && c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required for the sqlite driver")
	}
	if c.Auth.AdminToken == "" {
		return fmt.Errorf("auth.admin_token must not be empty")
	}
	if c.Answers.MinLength < 1 {
		return fmt.Errorf("answers.min_length must be at least 1, got %d", c.Answers.MinLength)
	}
	if c.Notification.Workers < 1 {
		return fmt.Errorf("notification.workers must be at least 1, got %d", c.Notification.Workers)
	}
	if c.Notification.QueueSize < 1 {
		return fmt.Errorf("notification.queue_size must be at least 1, got %d", c.Notification.QueueSize)
	}
	if c.Notification.Provider == "smtp" && c.Notification.SMTP.Host == "" {
		return fmt.Errorf("notification.smtp.host is required for the smtp provider")
	}
	return nil
}

// MustLoad reads, validates, and returns the application config.
// Functions prefixed with "Must" may exit the process on failure: if this
// returns, the config is valid.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err.Error())
	}
	return cfg
}
