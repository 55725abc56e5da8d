package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	NatsURL      string
	NatsToken    string
	DatabaseURL  string
	LogLevel     string
	APIURL       string
	Model        string
	Effort       string
	HistoryLimit int
	HistoryCap   int
}

func Load() Config {
	return Config{
		Port:         envInt("QUARRY_PORT", 8760),
		NatsURL:      envStr("NATS_URL", "nats://hermes:4222"),
		NatsToken:    envStr("NATS_TOKEN", ""),
		DatabaseURL:  envStr("DATABASE_URL", ""),
		LogLevel:     envStr("LOG_LEVEL", "info"),
		APIURL:       envStr("QUARRY_API_URL", "http://localhost:8760"),
		Model:        envStr("QUARRY_MODEL", "gemini-2.5-flash"),
		Effort:       envStr("QUARRY_EFFORT", "medium"),
		HistoryLimit: envInt("QUARRY_HISTORY_LIMIT", 50),
		HistoryCap:   envInt("QUARRY_HISTORY_CAP", 100),
	}
}

// LoadDotenv reads KEY=value pairs from the given files (".env" when none are
// named) into the process environment without overriding variables that are
// already set. Missing files are not an error.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
