package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Auth         AuthConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Media        MediaConfig
	PubSub       PubSubConfig
	Cron         CronConfig
	Listings     ListingsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MARKETLOOP_APP_ENV" required:"true"`
	Port         string `envconfig:"MARKETLOOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MARKETLOOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARKETLOOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MARKETLOOP_DB_DSN"`
	Driver string `envconfig:"MARKETLOOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARKETLOOP_DB_HOST"`
	LegacyPort     int    `envconfig:"MARKETLOOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARKETLOOP_DB_USER"`
	LegacyPassword string `envconfig:"MARKETLOOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARKETLOOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARKETLOOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARKETLOOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKETLOOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKETLOOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKETLOOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARKETLOOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MARKETLOOP_REDIS_ADDR"`
	Password     string        `envconfig:"MARKETLOOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKETLOOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKETLOOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARKETLOOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARKETLOOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKETLOOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARKETLOOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// AuthConfig describes how access tokens minted by the external auth
// provider are verified, plus the provider's admin endpoint used during
// account deletion.
type AuthConfig struct {
	JWTSecret    string        `envconfig:"MARKETLOOP_AUTH_JWT_SECRET" required:"true"`
	JWTIssuer    string        `envconfig:"MARKETLOOP_AUTH_JWT_ISSUER" required:"true"`
	AdminURL     string        `envconfig:"MARKETLOOP_AUTH_ADMIN_URL"`
	AdminAPIKey  string        `envconfig:"MARKETLOOP_AUTH_ADMIN_API_KEY"`
	AdminTimeout time.Duration `envconfig:"MARKETLOOP_AUTH_ADMIN_TIMEOUT" default:"10s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MARKETLOOP_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MARKETLOOP_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"MARKETLOOP_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MARKETLOOP_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"MARKETLOOP_GCS_BUCKET_NAME" required:"true"`
	PublicURL  string `envconfig:"MARKETLOOP_GCS_PUBLIC_URL" default:"https://storage.googleapis.com"`
}

type MediaConfig struct {
	MaxUploadMB  int    `envconfig:"MARKETLOOP_MEDIA_MAX_UPLOAD_MB" default:"10"`
	UploadFolder string `envconfig:"MARKETLOOP_MEDIA_UPLOAD_FOLDER" default:"listings"`
}

type PubSubConfig struct {
	MediaDeletionSubscription string `envconfig:"MARKETLOOP_PUBSUB_MEDIA_DELETION_SUBSCRIPTION" required:"true"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"MARKETLOOP_CRON_INTERVAL" default:"1h"`
	MediaSweepGrace     time.Duration `envconfig:"MARKETLOOP_CRON_MEDIA_SWEEP_GRACE" default:"15m"`
	MediaSweepBatchSize int           `envconfig:"MARKETLOOP_CRON_MEDIA_SWEEP_BATCH" default:"100"`
}

type ListingsConfig struct {
	SellerCacheTTL time.Duration `envconfig:"MARKETLOOP_LISTINGS_SELLER_CACHE_TTL" default:"5m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
