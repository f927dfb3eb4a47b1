package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Supported blob backends.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
	BackendRedis    = "redis"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port              string
	AuthToken         string
	SnapshotURL       string
	SnapshotTimeoutMS int
	SyncEpoch         time.Time
	SyncSchedule      string
	SyncLockFile      string
	ReadTimeoutSecs   int
	WriteTimeoutSecs  int
	IdleTimeoutSecs   int
	LogLevel          string
	LogFormat         string

	BlobBackend string
	BlobDir     string
	BlobPrefix  string

	DBURL             string
	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
	DBStatementCache  int

	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3UseSSL    bool

	RedisURL string
}

// SnapshotTimeout is the per-request snapshot timeout.
func (c Config) SnapshotTimeout() time.Duration {
	return time.Duration(c.SnapshotTimeoutMS) * time.Millisecond
}

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		AuthToken:         os.Getenv("AUTH_TOKEN"),
		SnapshotURL:       os.Getenv("SNAPSHOT_URL"),
		SnapshotTimeoutMS: getEnvInt("SNAPSHOT_TIMEOUT_MS", 1000),
		SyncSchedule:      getEnv("SYNC_SCHEDULE", "0 * * * *"),
		SyncLockFile:      getEnv("SYNC_LOCK_FILE", filepath.Join(os.TempDir(), "moviesync.lock")),
		ReadTimeoutSecs:   getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs:  getEnvInt("SERVER_WRITE_TIMEOUT", 30),
		IdleTimeoutSecs:   getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		BlobBackend:       strings.ToLower(getEnv("BLOB_BACKEND", BackendFile)),
		BlobDir:           getEnv("BLOB_DIR", "data"),
		BlobPrefix:        os.Getenv("BLOB_PREFIX"),
		DBURL:             os.Getenv("DB_URL"),
		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 4),
		DBMinConns:        getEnvInt("DB_MIN_CONNS", 0),
		DBMaxIdleSecs:     getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:     getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs: getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
		DBStatementCache:  getEnvInt("DB_STATEMENT_CACHE_CAPACITY", 64),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3AccessKey:       os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:       os.Getenv("S3_SECRET_KEY"),
		S3Region:          os.Getenv("S3_REGION"),
		S3UseSSL:          getEnvBool("S3_USE_SSL", true),
		RedisURL:          os.Getenv("REDIS_URL"),
	}

	epoch, err := time.Parse("2006-01-02", getEnv("SYNC_EPOCH", "2024-01-01"))
	if err != nil {
		return Config{}, fmt.Errorf("SYNC_EPOCH must follow YYYY-MM-DD format")
	}
	cfg.SyncEpoch = epoch

	if cfg.SnapshotURL == "" {
		return Config{}, fmt.Errorf("SNAPSHOT_URL is required")
	}
	if cfg.SnapshotTimeoutMS <= 0 {
		return Config{}, fmt.Errorf("SNAPSHOT_TIMEOUT_MS must be positive")
	}
	if strings.TrimSpace(cfg.SyncSchedule) == "" {
		return Config{}, fmt.Errorf("SYNC_SCHEDULE must not be empty")
	}

	switch cfg.BlobBackend {
	case BackendFile:
		if cfg.BlobDir == "" {
			return Config{}, fmt.Errorf("BLOB_DIR is required for the file backend")
		}
	case BackendMemory:
	case BackendPostgres:
		if cfg.DBURL == "" {
			return Config{}, fmt.Errorf("DB_URL is required for the postgres backend")
		}
		if cfg.DBMaxConns <= 0 {
			return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
		}
		if cfg.DBMinConns < 0 {
			return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
		}
		if cfg.DBMinConns > cfg.DBMaxConns {
			return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
		}
		if cfg.DBStatementCache < 0 {
			return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
		}
	case BackendS3:
		if cfg.S3Endpoint == "" || cfg.S3Bucket == "" {
			return Config{}, fmt.Errorf("S3_ENDPOINT and S3_BUCKET are required for the s3 backend")
		}
	case BackendRedis:
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL is required for the redis backend")
		}
	default:
		return Config{}, fmt.Errorf("BLOB_BACKEND %q is not supported", cfg.BlobBackend)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
