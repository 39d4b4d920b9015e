package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMinio = "minio"
	StorageS3    = "s3"
	StorageLocal = "local"
)

type (
	APP struct {
		Name      string
		Host      string
		Port      string
		Env       string
		JWTSecret string
		TokenTTL  time.Duration
	}
	DB struct {
		User     string
		Password string
		Name     string
		Host     string
		Port     string
		SSLMode  string
	}
	Storage struct {
		Backend         string
		Endpoint        string
		Region          string
		AccessKeyID     string
		SecretAccessKey string
		Bucket          string
		Prefix          string
		LocalRoot       string
		UseSSL          bool
		RetryAttempts   int
		RetryInterval   time.Duration
	}
	Upload struct {
		MaxFileBytes int64
		QuotaWindow  time.Duration
		Retention    time.Duration
	}
	Sweeper struct {
		Enabled          bool
		Interval         time.Duration
		ReconcileOrphans bool
		OrphanGrace      time.Duration
	}
	MQ struct {
		Enabled      bool
		User         string
		Password     string
		Vhost        string
		Host         string
		AmqpPort     string
		Exchange     string
		ExchangeType string
		QueueName    string
	}
	Cache struct {
		UserSize int
		UserTTL  time.Duration
	}

	Config struct {
		App     APP
		DB      DB
		Storage Storage
		Upload  Upload
		Sweeper Sweeper
		MQ      MQ
		Cache   Cache
	}
)

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getEnvBool(key string, def bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return def
	}
	return b
}

func Load() Config {
	app := APP{
		Name:      getEnv("SERVICE_NAME", "fileshare"),
		Host:      getEnv("SERVICE_HOST", ""),
		Port:      getEnv("SERVICE_PORT", "8080"),
		Env:       getEnv("SERVICE_ENV", ""),
		JWTSecret: getEnv("SERVICE_JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("SERVICE_TOKEN_TTL", 24*time.Hour),
	}
	db := DB{
		User:     getEnv("POSTGRES_USER", ""),
		Password: getEnv("POSTGRES_PASSWORD", ""),
		Name:     getEnv("POSTGRES_DB", ""),
		Host:     getEnv("POSTGRES_HOST", ""),
		Port:     getEnv("POSTGRES_PORT", "5432"),
		SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
	storage := Storage{
		Backend:         strings.ToLower(getEnv("STORAGE_BACKEND", StorageMinio)),
		Endpoint:        getEnv("STORAGE_ENDPOINT", ""),
		Region:          getEnv("STORAGE_REGION", "us-east-1"),
		AccessKeyID:     getEnv("STORAGE_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("STORAGE_SECRET_ACCESS_KEY", ""),
		Bucket:          getEnv("STORAGE_BUCKET", ""),
		Prefix:          getEnv("STORAGE_PREFIX", "uploads/"),
		LocalRoot:       getEnv("STORAGE_LOCAL_ROOT", "./data/blobs"),
		UseSSL:          getEnvBool("STORAGE_USE_SSL", false),
		RetryAttempts:   getEnvInt("STORAGE_RETRY_ATTEMPTS", 3),
		RetryInterval:   getEnvDuration("STORAGE_RETRY_INTERVAL", 200*time.Millisecond),
	}
	upload := Upload{
		MaxFileBytes: int64(getEnvInt("UPLOAD_MAX_FILE_BYTES", 10<<20)),
		QuotaWindow:  getEnvDuration("UPLOAD_QUOTA_WINDOW", 24*time.Hour),
		Retention:    getEnvDuration("UPLOAD_RETENTION", 7*24*time.Hour),
	}
	sweeper := Sweeper{
		Enabled:          getEnvBool("SWEEPER_ENABLED", true),
		Interval:         getEnvDuration("SWEEPER_INTERVAL", 24*time.Hour),
		ReconcileOrphans: getEnvBool("SWEEPER_RECONCILE_ORPHANS", true),
		OrphanGrace:      getEnvDuration("SWEEPER_ORPHAN_GRACE", time.Hour),
	}
	mq := MQ{
		Enabled:      getEnvBool("RABBITMQ_ENABLED", false),
		User:         getEnv("RABBITMQ_USER", ""),
		Password:     getEnv("RABBITMQ_PASSWORD", ""),
		Vhost:        getEnv("RABBITMQ_VHOST", ""),
		Host:         getEnv("RABBITMQ_HOST", ""),
		AmqpPort:     getEnv("RABBITMQ_AMQP_PORT", "5672"),
		Exchange:     getEnv("RABBITMQ_EXCHANGE", "fileshare.events"),
		ExchangeType: getEnv("RABBITMQ_EXCHANGE_TYPE", "topic"),
		QueueName:    getEnv("RABBITMQ_QUEUE_NAME", "fileshare.lifecycle"),
	}
	cache := Cache{
		UserSize: getEnvInt("CACHE_USER_SIZE", 1024),
		UserTTL:  getEnvDuration("CACHE_USER_TTL", 5*time.Minute),
	}

	return Config{
		App:     app,
		DB:      db,
		Storage: storage,
		Upload:  upload,
		Sweeper: sweeper,
		MQ:      mq,
		Cache:   cache,
	}
}

// Validate fails fast on settings the server cannot start without.
func (c Config) Validate() error {
	if c.App.JWTSecret == "" {
		return fmt.Errorf("SERVICE_JWT_SECRET is required")
	}
	if c.Upload.MaxFileBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_FILE_BYTES must be positive")
	}
	if c.Upload.QuotaWindow <= 0 {
		return fmt.Errorf("UPLOAD_QUOTA_WINDOW must be positive")
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Sweeper.Validate(c.Storage.Prefix); err != nil {
		return err
	}
	if _, err := c.DBDSN(); err != nil {
		return err
	}
	if c.MQ.Enabled {
		if _, err := c.AMQPDSN(); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks the orphan pass settings. The pass deletes every unknown
// blob under keyPrefix, so it needs a real prefix and a positive grace period.
func (s Sweeper) Validate(keyPrefix string) error {
	if !s.ReconcileOrphans {
		return nil
	}
	if s.OrphanGrace <= 0 {
		return fmt.Errorf("SWEEPER_ORPHAN_GRACE must be positive when SWEEPER_RECONCILE_ORPHANS is on")
	}
	if strings.Trim(keyPrefix, "/ ") == "" {
		return fmt.Errorf("STORAGE_PREFIX must be set when SWEEPER_RECONCILE_ORPHANS is on")
	}

	return nil
}

func (s Storage) Validate() error {
	switch s.Backend {
	case StorageMinio:
		if s.Endpoint == "" || s.AccessKeyID == "" || s.SecretAccessKey == "" || s.Bucket == "" {
			return fmt.Errorf("minio storage config incomplete: endpoint, credentials and bucket are required")
		}
	case StorageS3:
		if s.Bucket == "" || s.Region == "" {
			return fmt.Errorf("s3 storage config incomplete: bucket and region are required")
		}
	case StorageLocal:
		if s.LocalRoot == "" {
			return fmt.Errorf("local storage config incomplete: root is required")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", s.Backend)
	}
	if s.RetryAttempts < 1 {
		return fmt.Errorf("STORAGE_RETRY_ATTEMPTS must be at least 1")
	}

	return nil
}

func (c Config) DBDSN() (string, error) {
	if c.DB.User == "" || c.DB.Name == "" || c.DB.Host == "" || c.DB.Port == "" {
		return "", fmt.Errorf("incomplete DB config")
	}
	return fmt.Sprintf(
		"postgres://%s@%s:%s/%s?sslmode=%s",
		url.UserPassword(c.DB.User, c.DB.Password).String(),
		c.DB.Host,
		c.DB.Port,
		c.DB.Name,
		c.DB.SSLMode,
	), nil
}

// MigrateDSN is the DB DSN in the scheme the pgx5 migrate driver registers.
func (c Config) MigrateDSN() (string, error) {
	dsn, err := c.DBDSN()
	if err != nil {
		return "", err
	}
	return "pgx5" + strings.TrimPrefix(dsn, "postgres"), nil
}

func (c Config) AMQPDSN() (string, error) {
	if c.MQ.User == "" || c.MQ.Host == "" || c.MQ.AmqpPort == "" {
		return "", fmt.Errorf("invalid MQ config: user, host and amqp port are required")
	}

	return fmt.Sprintf(
		"%s://%s@%s:%s/%s",
		"amqp",
		url.UserPassword(c.MQ.User, c.MQ.Password).String(),
		c.MQ.Host,
		c.MQ.AmqpPort,
		url.PathEscape(c.MQ.Vhost),
	), nil
}
