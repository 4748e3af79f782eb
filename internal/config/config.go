package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr        string
	DatabaseURL string
	ReposDir    string
	EventLogCap int
	// Meilisearch - empty URL disables the indexed search path
	MeiliURL       string
	MeiliMasterKey string
	// Redis - empty URL disables the presence mirror
	RedisURL string
	// MinIO - empty endpoint disables snapshot uploads
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	// AI generator - empty provider list disables AI-assisted edits
	AIProviderURLs []string
	AIAPIKey       string
	AITimeout      time.Duration
}

func Load() Config {
	return Config{
		Addr:           getenv("ENGINE_ADDR", ":8790"),
		DatabaseURL:    getenv("DATABASE_URL", ""),
		ReposDir:       getenv("COWRITE_REPOS_DIR", "./data/rooms"),
		EventLogCap:    getenvInt("COWRITE_EVENT_LOG_CAP", 1000),
		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),
		RedisURL:       getenv("REDIS_URL", ""),
		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "cowrite-snapshots"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "") == "true",
		AIProviderURLs: splitList(getenv("COWRITE_AI_PROVIDER_URLS", "")),
		AIAPIKey:       getenv("COWRITE_AI_API_KEY", ""),
		AITimeout:      time.Duration(getenvInt("COWRITE_AI_TIMEOUT_SECONDS", 20)) * time.Second,
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
