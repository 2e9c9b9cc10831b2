package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the externally injected tuning knobs for the spark engine.
// Every value has a working default so the server can start with nothing
// but AWS credentials in the environment.
type Config struct {
	Port             string
	RadiusMeters     float64
	Cooldown         time.Duration
	Expiry           time.Duration
	MaxSampleAge     time.Duration
	IngestPartitions int
	IngestBuffer     int
	IngestMaxRetries int
	JobTimeout       time.Duration
	S3Bucket         string
}

// Load reads configuration from environment variables, falling back to
// defaults suitable for development.
func Load() Config {
	return Config{
		Port:             getEnv("PORT", "8080"),
		RadiusMeters:     getEnvFloat("SPARK_RADIUS_METERS", 100),
		Cooldown:         time.Duration(getEnvInt("SPARK_COOLDOWN_SECONDS", 300)) * time.Second,
		Expiry:           time.Duration(getEnvInt("SPARK_EXPIRY_HOURS", 72)) * time.Hour,
		MaxSampleAge:     time.Duration(getEnvInt("SPARK_MAX_SAMPLE_AGE_SECONDS", 900)) * time.Second,
		IngestPartitions: getEnvInt("INGEST_PARTITIONS", 8),
		IngestBuffer:     getEnvInt("INGEST_BUFFER", 256),
		IngestMaxRetries: getEnvInt("INGEST_MAX_RETRIES", 3),
		JobTimeout:       time.Duration(getEnvInt("INGEST_JOB_TIMEOUT_SECONDS", 10)) * time.Second,
		S3Bucket:         os.Getenv("S3_BUCKET_NAME"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
