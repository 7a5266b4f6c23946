package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	CORSOrigins string
	TablePrefix string
	// Auth
	SecretKey          string
	TokenExpiryMinutes int
	// OpenAI
	OpenAIAPIKey string
	DefaultModel string
	// Fine-tune training data
	TrainingDataPath   string
	ValidationDataPath string
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),
		// Auth
		SecretKey:          getEnv("SECRET_KEY", ""),
		TokenExpiryMinutes: getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24),
		// OpenAI
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		DefaultModel: getEnv("DEFAULT_MODEL", "gpt-3.5-turbo"),
		// Fine-tune training data
		TrainingDataPath:   getEnv("TRAINING_DATA_PATH", "data/training_data.jsonl"),
		ValidationDataPath: getEnv("VALIDATION_DATA_PATH", "data/validation_data.jsonl"),
		// Debug flags - default to true outside prod
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
