package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	defaultPollInterval = 60
	minPollInterval     = 10
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	DiscordToken string

	// Steam Web API
	SteamWebAPIKey string

	// SteamGridDB (optional, nicer cover art)
	SteamGridDBAPIKey string

	// LLM commentary (optional)
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	CommentPrompt string

	// Polling
	PollIntervalSeconds int

	// Data
	DataDir  string
	FontPath string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:        os.Getenv("DISCORD_BOT_TOKEN"),
		SteamWebAPIKey:      os.Getenv("STEAM_WEB_API_KEY"),
		SteamGridDBAPIKey:   os.Getenv("STEAMGRIDDB_API_KEY"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:       os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:         os.Getenv("OPENAI_MODEL"),
		CommentPrompt:       os.Getenv("COMMENT_PROMPT"),
		PollIntervalSeconds: parsePollInterval(os.Getenv("POLL_INTERVAL_SECONDS")),
		DataDir:             getEnvOrDefault("DATA_DIR", "./data/steamwatch"),
		FontPath:            os.Getenv("FONT_PATH"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}
	if cfg.SteamWebAPIKey == "" {
		return nil, fmt.Errorf("STEAM_WEB_API_KEY is required")
	}

	return cfg, nil
}

// parsePollInterval parses the poll interval in seconds, defaulting on bad
// input and clamping to the minimum.
func parsePollInterval(raw string) int {
	val, err := strconv.Atoi(raw)
	if err != nil {
		return defaultPollInterval
	}
	if val < minPollInterval {
		return minPollInterval
	}
	return val
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
