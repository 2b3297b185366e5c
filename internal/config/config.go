package config

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Port     string
	LogLevel string

	StorageBackend  string // file | postgres
	PostgresDSN     string
	MedicationsFile string
	IntakeLogsFile  string

	AuthMode       string // local | remote | token
	JWTSecret      string
	AuthServiceURL string
	SessionTTL     time.Duration
}

var (
	cfg  *Config
	once sync.Once
)

func Load() *Config {
	once.Do(func() {
		_ = godotenv.Load()
		cfg = &Config{
			Env:             getEnv("APP_ENV", "development"),
			Port:            getEnv("PORT", "8088"),
			LogLevel:        getEnv("LOG_LEVEL", "info"),
			StorageBackend:  getEnv("STORAGE_BACKEND", "file"),
			PostgresDSN:     getEnv("POSTGRES_DSN", ""),
			MedicationsFile: getEnv("MEDICATIONS_FILE", "data/medications.json"),
			IntakeLogsFile:  getEnv("INTAKE_LOGS_FILE", "data/intake_logs.json"),
			AuthMode:        getEnv("AUTH_MODE", "local"),
			JWTSecret:       getEnv("JWT_SECRET", "dev-secret"),
			AuthServiceURL:  getEnv("AUTH_SERVICE_URL", ""),
			SessionTTL:      getDuration("SESSION_TTL", 12*time.Hour),
		}
		if err := cfg.Validate(); err != nil {
			panic("Invalid config: " + err.Error())
		}
	})
	return cfg
}

func (c *Config) Validate() error {
	if c.StorageBackend == "postgres" && c.PostgresDSN == "" {
		return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
	}
	if c.StorageBackend == "file" && (c.MedicationsFile == "" || c.IntakeLogsFile == "") {
		return errors.New("file storage requires MEDICATIONS_FILE and INTAKE_LOGS_FILE to be set")
	}
	if c.AuthMode == "remote" && c.AuthServiceURL == "" {
		return errors.New("AUTH_SERVICE_URL is required when AUTH_MODE=remote")
	}
	if c.AuthMode == "local" && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when AUTH_MODE=local")
	}
	if c.AuthMode == "token" && c.StorageBackend != "postgres" {
		return errors.New("AUTH_MODE=token requires STORAGE_BACKEND=postgres")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
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
