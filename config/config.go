package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	DOMjudge DOMjudgeConfig
	Contest  ContestConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DOMjudgeConfig holds the DOMjudge admin API endpoint and credentials.
type DOMjudgeConfig struct {
	APIBase    string // e.g. https://judge.example.org
	Username   string
	Password   string
	ContestID  string
	TimeoutSec int
}

// ContestConfig holds contest-level provisioning defaults.
type ContestConfig struct {
	GroupID string // team category every provisioned team joins
	Country string // ISO alpha-3 country assigned to new affiliations
}

// LoggingConfig holds log level settings.
type LoggingConfig struct {
	Level string
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "30"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "3000"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		DOMjudge: DOMjudgeConfig{
			APIBase:    getEnv("DOMJUDGE_API_BASE", "https://bircpc.ir"),
			Username:   getEnv("DOMJUDGE_USERNAME", "admin"),
			Password:   getEnv("DOMJUDGE_PASSWORD", ""),
			ContestID:  getEnv("DOMJUDGE_CONTEST_ID", "1"),
			TimeoutSec: getEnvInt("DOMJUDGE_TIMEOUT_SEC", 30),
		},
		Contest: ContestConfig{
			GroupID: getEnv("DOMJUDGE_GROUP_ID", "3"),
			Country: getEnv("DOMJUDGE_ORG_COUNTRY", "IRN"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if cfg.DOMjudge.APIBase == "" {
		return nil, fmt.Errorf("DOMJUDGE_API_BASE is required")
	}
	return cfg, nil
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
