package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr           string
	DatabaseURL    string
	DocumentRoot   string
	JWTSigningKey  string
	RenderWorkers  int
	RenderQueueCap int
	JobRetention   time.Duration
	TracingEnabled bool
}

const (
	defaultAddr           = ":8080"
	defaultDocumentRoot   = "./data/documents"
	defaultRenderWorkers  = 2
	defaultRenderQueueCap = 64
	defaultJobRetention   = 30 * time.Minute
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:           getEnv("LUMINA_ADDR", defaultAddr),
		DatabaseURL:    os.Getenv("LUMINA_DATABASE_URL"),
		DocumentRoot:   getEnv("LUMINA_DOCUMENT_ROOT", defaultDocumentRoot),
		JWTSigningKey:  getEnv("LUMINA_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		RenderWorkers:  getEnvInt("LUMINA_RENDER_WORKERS", defaultRenderWorkers),
		RenderQueueCap: getEnvInt("LUMINA_RENDER_QUEUE_CAP", defaultRenderQueueCap),
		JobRetention:   defaultJobRetention,
		TracingEnabled: getEnvBool("LUMINA_TRACING"),
	}
	if raw := os.Getenv("LUMINA_JOB_RETENTION"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.JobRetention = d
		}
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && b
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
