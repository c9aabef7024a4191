package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Mongo      MongoConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Media      MediaConfig
	Classifier ClassifierConfig
	SMTP       SMTPConfig
	Keepalive  KeepaliveConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// MongoConfig holds document store connection values.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// RedisConfig holds Redis connection values, shared by the stats cache and
// the notification queue.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// MediaConfig configures the proof image object store.
type MediaConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	UseSSL        bool
	PublicBaseURL string
}

// ClassifierConfig configures the department classification service and the
// deterministic fallback used when it is unreachable.
type ClassifierConfig struct {
	URL                     string
	TimeoutSeconds          int
	FallbackDepartmentEmail string
	FallbackDepartmentName  string
}

// SMTPConfig holds the long-lived mail transport settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// KeepaliveConfig controls the scheduler that pings sibling services.
type KeepaliveConfig struct {
	Enabled    bool
	Schedule   string
	TargetURLs []string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "complaint-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
			Database:       getEnv("MONGO_DATABASE", "complaints"),
			ConnectTimeout: time.Duration(getEnvAsInt("MONGO_CONNECT_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Media: MediaConfig{
			Endpoint:      getEnv("MEDIA_S3_ENDPOINT", "127.0.0.1:9000"),
			AccessKey:     os.Getenv("MEDIA_S3_ACCESS_KEY"),
			SecretKey:     os.Getenv("MEDIA_S3_SECRET_KEY"),
			Bucket:        getEnv("MEDIA_S3_BUCKET", "complaint-proofs"),
			Region:        getEnv("MEDIA_S3_REGION", "us-east-1"),
			UseSSL:        getEnvAsBool("MEDIA_S3_USE_SSL", false),
			PublicBaseURL: getEnv("MEDIA_PUBLIC_BASE_URL", "http://127.0.0.1:9000"),
		},
		Classifier: ClassifierConfig{
			URL:                     getEnv("CLASSIFIER_URL", "http://127.0.0.1:8000/classify"),
			TimeoutSeconds:          getEnvAsInt("CLASSIFIER_TIMEOUT_SECONDS", 5),
			FallbackDepartmentEmail: getEnv("FALLBACK_DEPARTMENT_EMAIL", "grievance.cell@gov.example"),
			FallbackDepartmentName:  getEnv("FALLBACK_DEPARTMENT_NAME", "General Grievance Cell"),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("SMTP_PORT", 465),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "noreply@example.com"),
		},
		Keepalive: KeepaliveConfig{
			Enabled:    getEnvAsBool("KEEPALIVE_ENABLED", false),
			Schedule:   getEnv("KEEPALIVE_SCHEDULE", "*/14 * * * *"),
			TargetURLs: splitAndTrim(os.Getenv("KEEPALIVE_TARGET_URLS")),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the classification call deadline.
func (c ClassifierConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitAndTrim(val string) []string {
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
