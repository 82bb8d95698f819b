package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	Email    string
	Password string

	SMTPServer string
	SMTPPort   int
	IMAPServer string
	IMAPPort   int

	MonitoredSender string
	PollInterval    time.Duration

	AIProvider    string
	OllamaBaseURL string
	OllamaModel   string

	TemplatesPath string
	LogFile       string

	MergeLimit int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	pollInterval := 1 * time.Second
	if raw := os.Getenv("POLL_INTERVAL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			pollInterval = parsed
		}
	}

	return &Config{
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "replydesk"),

		Email:    getEnv("EMAIL", ""),
		Password: getEnv("PASSWORD", ""),

		SMTPServer: getEnv("SMTP_SERVER", ""),
		SMTPPort:   getEnvInt("SMTP_PORT", 587),
		IMAPServer: getEnv("IMAP_SERVER", ""),
		IMAPPort:   getEnvInt("IMAP_PORT", 993),

		MonitoredSender: getEnv("MONITORED_SENDER", ""),
		PollInterval:    pollInterval,

		AIProvider:    getEnv("AI_PROVIDER", "ollama"),
		OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama2"),

		TemplatesPath: getEnv("TEMPLATES_PATH", "templates.yml"),
		LogFile:       getEnv("LOG_FILE", "email_service.log"),

		MergeLimit: getEnvInt("MERGE_LIMIT", 500),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
