package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	AWS       AWSConfig
	Inference InferenceConfig
	Content   ContentConfig
	Tasks     TasksConfig
	Worker    WorkerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/vidpulse?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AWSConfig holds AWS credentials and the optional statistics snapshot bucket.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	StatsBucket     string // empty disables snapshots
}

// InferenceConfig points at an OpenAI-compatible chat completions endpoint.
type InferenceConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// ContentConfig tunes simulated content generation.
type ContentConfig struct {
	TemplateFallback bool
	CleanupDaysOld   int
}

// TasksConfig holds recurring job schedules and dispatcher behaviour.
type TasksConfig struct {
	VideoGenerationEnabled bool
	VideoGenerationSpec    string
	EngagementEnabled      bool
	EngagementSpec         string
	StatsEnabled           bool
	StatsSpec              string
	CleanupEnabled         bool
	CleanupSpec            string
	FailOnExhausted        bool
	BootstrapDelay         time.Duration
}

// WorkerConfig holds job processor settings.
type WorkerConfig struct {
	Concurrency int
	PollTimeout time.Duration
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "vidpulse"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			StatsBucket:     getEnv("AWS_S3_STATS_BUCKET", ""),
		},
		Inference: InferenceConfig{
			BaseURL: getEnv("INFERENCE_BASE_URL", "https://api.openai.com"),
			APIKey:  getEnv("INFERENCE_API_KEY", ""),
			Model:   getEnv("INFERENCE_MODEL", "gpt-3.5-turbo"),
			Timeout: getEnvDuration("INFERENCE_TIMEOUT", 30*time.Second),
		},
		Content: ContentConfig{
			TemplateFallback: getEnvBool("CONTENT_TEMPLATE_FALLBACK", false),
			CleanupDaysOld:   getEnvInt("CONTENT_CLEANUP_DAYS_OLD", 30),
		},
		Tasks: TasksConfig{
			VideoGenerationEnabled: getEnvBool("TASKS_VIDEO_GENERATION_ENABLED", true),
			VideoGenerationSpec:    getEnv("TASKS_VIDEO_GENERATION_SPEC", "@every 30m"),
			EngagementEnabled:      getEnvBool("TASKS_ENGAGEMENT_ENABLED", true),
			EngagementSpec:         getEnv("TASKS_ENGAGEMENT_SPEC", "@every 5m"),
			StatsEnabled:           getEnvBool("TASKS_STATS_ENABLED", true),
			StatsSpec:              getEnv("TASKS_STATS_SPEC", "@every 1h"),
			CleanupEnabled:         getEnvBool("TASKS_CLEANUP_ENABLED", true),
			CleanupSpec:            getEnv("TASKS_CLEANUP_SPEC", "0 0 2 * * *"),
			FailOnExhausted:        getEnvBool("TASKS_FAIL_ON_EXHAUSTED", false),
			BootstrapDelay:         getEnvDuration("TASKS_BOOTSTRAP_DELAY", 2*time.Second),
		},
		Worker: WorkerConfig{
			Concurrency: getEnvInt("WORKER_CONCURRENCY", 2),
			PollTimeout: getEnvDuration("WORKER_POLL_TIMEOUT", 2*time.Second),
		},
	}
	if cfg.Worker.Concurrency < 1 {
		return nil, fmt.Errorf("WORKER_CONCURRENCY must be at least 1, got %d", cfg.Worker.Concurrency)
	}
	if cfg.Content.CleanupDaysOld < 0 {
		return nil, fmt.Errorf("CONTENT_CLEANUP_DAYS_OLD must not be negative, got %d", cfg.Content.CleanupDaysOld)
	}
	return cfg, nil
}

// Origins splits CORSAllowedOrigins into its entries.
func (c ServerConfig) Origins() []string {
	return splitTrim(c.CORSAllowedOrigins, ",")
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
