package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all environment configuration values for the client.
// Values are loaded from a .env file at startup if one is present.
type Config struct {
	// APIBaseURL is the base URL of the platform REST API
	APIBaseURL string

	// WSURL is the websocket endpoint for the push channel
	WSURL string

	// Token is the bearer token of the logged-in user
	Token string

	// Location is the web-app deep link the client was opened from.
	// The assistant derives its course context from it.
	Location string

	// LogFile is where leveled logs go (stdout belongs to the TUI)
	LogFile string
}

// Load reads environment variables and returns a populated Config struct.
// It will load from a .env file if present, then read from environment
// variables. Falls back to sensible defaults if values are not set.
func Load() *Config {
	// Not an error if the .env file doesn't exist; real environments set
	// the variables directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		APIBaseURL: getEnv("STUDYHALL_API_URL", "http://localhost:8080"),
		WSURL:      getEnv("STUDYHALL_WS_URL", "ws://localhost:8080/ws"),
		Token:      getEnv("STUDYHALL_TOKEN", ""),
		Location:   getEnv("STUDYHALL_LOCATION", ""),
		LogFile:    getEnv("STUDYHALL_LOG_FILE", "studyhall.log"),
	}

	if config.Token == "" {
		log.Println("WARNING: STUDYHALL_TOKEN is not set")
	}

	return config
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
