package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const DefaultDatabaseURL = "sqlite:///./dev.db"

type Config struct {
	ServerPort int `env:"SERVER_PORT"`
	// Port is the platform-assigned port (Render, Heroku). SERVER_PORT wins.
	Port int `env:"PORT"`

	Database DatabaseConfig
	Log      LogConfig
	Events   EventsConfig
	Export   ExportConfig
}

type DatabaseConfig struct {
	URL string `env:"DATABASE_URL" envDefault:"sqlite:///./dev.db"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// EventsConfig selects where user lifecycle events are published.
type EventsConfig struct {
	Backend  string `env:"EVENTS_BACKEND" envDefault:"none"`
	Channel  string `env:"EVENTS_CHANNEL" envDefault:"usuarios.events"`
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string `env:"RABBITMQ_URL"`
	PrefetchCount   int    `env:"RABBITMQ_PREFETCH_COUNT" envDefault:"10"`
	QueueDurable    bool   `env:"RABBITMQ_QUEUE_DURABLE" envDefault:"true"`
	QueueAutoDelete bool   `env:"RABBITMQ_QUEUE_AUTO_DELETE"`
}

type PubSubConfig struct {
	ProjectID          string `env:"PUBSUB_PROJECT_ID"`
	CredentialsFile    string `env:"PUBSUB_CREDENTIALS_FILE"`
	SubscriptionSuffix string `env:"PUBSUB_SUBSCRIPTION_SUFFIX" envDefault:"-sub"`
}

// ExportConfig selects the object storage backend used by the export command.
type ExportConfig struct {
	Backend string `env:"EXPORT_BACKEND" envDefault:"minio"`
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET" envDefault:"usuarios"`
	UseSSL    bool   `env:"MINIO_USE_SSL"`
}

type GCSConfig struct {
	Bucket          string `env:"GCS_BUCKET"`
	ProjectID       string `env:"GCS_PROJECT_ID"`
	CredentialsFile string `env:"GCS_CREDENTIALS_FILE"`
}

func LoadConfig() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = DefaultDatabaseURL
	}
	return cfg, nil
}

// ListenPort resolves the HTTP port, falling back to 8080.
func (c Config) ListenPort() int {
	if c.ServerPort > 0 {
		return c.ServerPort
	}
	if c.Port > 0 {
		return c.Port
	}
	return 8080
}
