package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	JWTSecret       string
	TokenTTL        time.Duration
	LeaderboardSize int
}

// ClientConfig configures the game2048 player client.
type ClientConfig struct {
	APIURL        string
	DataPath      string
	Language      string
	Timeout       time.Duration
	RetryInterval time.Duration
}

// LoadDotEnv reads a .env file from the working directory when one exists.
// A missing file is not an error: the process environment is used as is.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

func Load() Config {
	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:        getEnvDuration("TOKEN_TTL", 7*24*time.Hour),
		LeaderboardSize: getEnvInt("LEADERBOARD_SIZE", 10),
	}
	return cfg
}

func LoadClient() ClientConfig {
	cfg := ClientConfig{
		APIURL:        getEnv("GAME2048_API_URL", "http://localhost:8080"),
		DataPath:      getEnv("GAME2048_DATA", defaultDataPath()),
		Language:      getEnv("GAME2048_LANG", "en"),
		Timeout:       getEnvDuration("GAME2048_TIMEOUT", 10*time.Second),
		RetryInterval: getEnvDuration("GAME2048_RETRY_INTERVAL", 5*time.Minute),
	}
	return cfg
}

func defaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "game2048.db"
	}
	return filepath.Join(home, ".game2048", "data.db")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
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
