package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/embedworks/vidembed/internal/domain/model"
)

type Config struct {
	Server   ServerConfig
	Worker   WorkerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	MinIO    MinIOConfig
	Oembed   OembedConfig
	Embed    EmbedConfig
}

type ServerConfig struct {
	Port            int           `envconfig:"API_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"API_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"API_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"API_SHUTDOWN_TIMEOUT" default:"10s"`
}

type WorkerConfig struct {
	Prefetch        int           `envconfig:"WORKER_PREFETCH" default:"8"`
	MaxRetries      int           `envconfig:"WORKER_MAX_RETRIES" default:"3"`
	ShutdownTimeout time.Duration `envconfig:"WORKER_SHUTDOWN_TIMEOUT" default:"30s"`
}

type DatabaseConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"vidembed"`
	Password string `envconfig:"POSTGRES_PASSWORD" default:"vidembed"`
	DBName   string `envconfig:"POSTGRES_DB" default:"vidembed"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RabbitMQConfig struct {
	Host     string `envconfig:"RABBITMQ_HOST" default:"localhost"`
	Port     int    `envconfig:"RABBITMQ_PORT" default:"5672"`
	User     string `envconfig:"RABBITMQ_USER" default:"vidembed"`
	Password string `envconfig:"RABBITMQ_PASSWORD" default:"vidembed"`
	VHost    string `envconfig:"RABBITMQ_VHOST" default:"/"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf(
		"amqp://%s:%s@%s:%d%s",
		c.User, c.Password, c.Host, c.Port, c.VHost,
	)
}

type MinIOConfig struct {
	Endpoint       string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	PublicEndpoint string `envconfig:"MINIO_PUBLIC_ENDPOINT" default:""`
	AccessKey      string `envconfig:"MINIO_ACCESS_KEY" default:"minioadmin"`
	SecretKey      string `envconfig:"MINIO_SECRET_KEY" default:"minioadmin"`
	Bucket         string `envconfig:"MINIO_BUCKET" default:"embed-thumbnails"`
	UseSSL         bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

type OembedConfig struct {
	Timeout   time.Duration `envconfig:"OEMBED_TIMEOUT" default:"10s"`
	UserAgent string        `envconfig:"OEMBED_USER_AGENT" default:"vidembed/1.0"`
}

// EmbedConfig carries the rendering and lifecycle settings. Setting
// EMBED_WRAP_STYLE or EMBED_FRAME_STYLE to an explicitly empty string
// disables inline styles on that element.
type EmbedConfig struct {
	MaxResolution      string        `envconfig:"EMBED_MAX_RESOLUTION" default:"none"`
	AspectPct          float64       `envconfig:"EMBED_ASPECT_PCT" default:"0"`
	WrapStyle          string        `envconfig:"EMBED_WRAP_STYLE" default:"position:relative;padding-bottom:{pct}%;height:0;overflow:hidden;"`
	FrameStyle         string        `envconfig:"EMBED_FRAME_STYLE" default:"position:absolute;top:0;left:0;width:100%;height:100%;"`
	RefreshDays        int           `envconfig:"EMBED_REFRESH_DAYS" default:"0"`
	FailMode           string        `envconfig:"EMBED_FAIL_MODE" default:"inline-error"`
	PrivacyEnhanced    bool          `envconfig:"EMBED_PRIVACY_ENHANCED" default:"false"`
	HotCacheTTL        time.Duration `envconfig:"EMBED_HOT_CACHE_TTL" default:"10m"`
	ThumbnailURLExpiry time.Duration `envconfig:"EMBED_THUMBNAIL_URL_EXPIRY" default:"1h"`
}

// Settings converts the environment values into normalized model settings.
func (c EmbedConfig) Settings() model.Settings {
	return model.Settings{
		MaxResolution:   model.MaxResolution(c.MaxResolution),
		AspectPct:       c.AspectPct,
		WrapStyle:       c.WrapStyle,
		FrameStyle:      c.FrameStyle,
		RefreshDays:     c.RefreshDays,
		FailMode:        model.FailMode(c.FailMode),
		PrivacyEnhanced: c.PrivacyEnhanced,
	}.Normalize()
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
