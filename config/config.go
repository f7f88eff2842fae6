package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RabbitURL string
	RedisAddr string
	LogLevel  string

	// Hold lifecycle.
	HoldTTL       time.Duration
	SweepInterval time.Duration

	// Admission control.
	AdmitCeiling       int
	AdmitBatch         int
	AdmissionTTL       time.Duration
	AdmissionInterval  time.Duration
	AvgAdmissionPeriod time.Duration

	// Join endpoint rate limit. Zero disables it.
	RateLimit       int
	RateLimitWindow time.Duration
}

func Load() *Config {
	// Missing .env is fine, variables may come from the environment.
	_ = godotenv.Load()

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "turnstile"),

		RabbitURL: getEnv("RABBITMQ_URL", ""),
		RedisAddr: getEnv("REDIS_ADDR", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		HoldTTL:       getDuration("HOLD_TTL", 2*time.Minute),
		SweepInterval: getDuration("SWEEP_INTERVAL", 5*time.Second),

		AdmitCeiling:       getInt("ADMIT_CEILING", 100),
		AdmitBatch:         getInt("ADMIT_BATCH", 10),
		AdmissionTTL:       getDuration("ADMISSION_TTL", 5*time.Minute),
		AdmissionInterval:  getDuration("ADMISSION_INTERVAL", 2*time.Second),
		AvgAdmissionPeriod: getDuration("AVG_ADMISSION_PERIOD", 3*time.Second),

		RateLimit:       getInt("RATE_LIMIT", 0),
		RateLimitWindow: getDuration("RATE_LIMIT_WINDOW", time.Minute),
	}
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
