package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers understood by the store package.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Asset backends understood by the assets package.
const (
	AssetBackendLocal = "local"
	AssetBackendGCS   = "gcs"
)

// Config is the full runtime configuration of the service.
type Config struct {
	AppPort        string
	JWTSecret      string
	TokenTTL       time.Duration
	Store          StoreConfig
	Assets         AssetConfig
	RabbitMQURL    string
	LogLevel       string
	LogFormat      string
	MaxUploadBytes int
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver         string
	MongoURI       string
	MongoDatabase  string
	DSN            string
	ConnectTimeout time.Duration
	AutoMigrate    bool
}

// AssetConfig selects where uploaded photos are written.
type AssetConfig struct {
	Backend   string
	UploadDir string
	URLPrefix string
	GCSBucket string
}

// SetDefaults registers every known key with its default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	v.SetDefault("TOKEN_TTL", "168h")
	v.SetDefault("STORE_DRIVER", DriverMongo)
	v.SetDefault("MONGODB_URI", "")
	v.SetDefault("MONGODB_DATABASE", "recipes")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("STORE_CONNECT_TIMEOUT", "10s")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("ASSET_BACKEND", AssetBackendLocal)
	v.SetDefault("UPLOAD_DIR", "public/uploads")
	v.SetDefault("UPLOAD_URL_PREFIX", "/uploads")
	v.SetDefault("GCS_BUCKET", "")
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Load reads configuration from the environment and, when configFile is
// non-empty, from that file. Environment variables win over the file.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:   v.GetString("APP_PORT"),
		JWTSecret: v.GetString("JWT_SECRET"),
		TokenTTL:  v.GetDuration("TOKEN_TTL"),
		Store: StoreConfig{
			Driver:         strings.ToLower(v.GetString("STORE_DRIVER")),
			MongoURI:       v.GetString("MONGODB_URI"),
			MongoDatabase:  v.GetString("MONGODB_DATABASE"),
			DSN:            v.GetString("DATABASE_DSN"),
			ConnectTimeout: v.GetDuration("STORE_CONNECT_TIMEOUT"),
			AutoMigrate:    v.GetBool("AUTO_MIGRATE"),
		},
		Assets: AssetConfig{
			Backend:   strings.ToLower(v.GetString("ASSET_BACKEND")),
			UploadDir: v.GetString("UPLOAD_DIR"),
			URLPrefix: strings.TrimSuffix(v.GetString("UPLOAD_URL_PREFIX"), "/"),
			GCSBucket: v.GetString("GCS_BUCKET"),
		},
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
		MaxUploadBytes: v.GetInt("MAX_UPLOAD_BYTES"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	switch c.Store.Driver {
	case DriverMongo, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	switch c.Assets.Backend {
	case AssetBackendLocal:
		if c.Assets.UploadDir == "" {
			return fmt.Errorf("UPLOAD_DIR is required for the local asset backend")
		}
	case AssetBackendGCS:
		if c.Assets.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required for the gcs asset backend")
		}
	default:
		return fmt.Errorf("unknown ASSET_BACKEND %q", c.Assets.Backend)
	}
	return nil
}
