package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Output
	OutputDir   string
	OptionsFile string

	// Warehouse (optional Postgres sink for the intermediate tables)
	WarehouseEnabled bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Snapshot refresh events (optional; disabled when the topic is empty)
	KafkaBrokers      []string
	KafkaRefreshTopic string
	KafkaWriteTimeout time.Duration
}

func Load() *Config {
	return &Config{
		OutputDir:   getEnv("OUTPUT_DIR", "."),
		OptionsFile: getEnv("PIPELINE_OPTIONS_FILE", ""),

		WarehouseEnabled: getBoolEnv("WAREHOUSE_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "canguro"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "growthcurves"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		KafkaBrokers:      getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaRefreshTopic: getEnv("KAFKA_REFRESH_TOPIC", ""),
		KafkaWriteTimeout: getDuration("KAFKA_WRITE_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
