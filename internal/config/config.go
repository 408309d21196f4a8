package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration shared by the app and dashboard processes.
type Config struct {
	ServerPort    int
	DashboardPort int
	DatabasePath  string
	AppEnv        string
	LogLevel      string
	CORSOrigins   []string

	JWTSecret  string
	SessionTTL time.Duration

	TumorModelPath    string
	DiabetesModelPath string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	OTPTTL       time.Duration
	OTPSweepSpec string // cron spec for evicting expired reset codes

	ChatAPIURL string
	ChatAPIKey string
	ChatModel  string

	DashboardURL string

	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

// defaultJWTSecret is only acceptable outside production.
const defaultJWTSecret = "supersecretekey"

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is read first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "5050"))
	if err != nil {
		return nil, err
	}
	dashboardPort, err := strconv.Atoi(getEnv("DASHBOARD_PORT", "8501"))
	if err != nil {
		return nil, err
	}
	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "1025"))
	if err != nil {
		return nil, err
	}
	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil {
		return nil, err
	}
	otpTTL, err := time.ParseDuration(getEnv("OTP_TTL", "10m"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:        port,
		DashboardPort:     dashboardPort,
		DatabasePath:      getEnv("DATABASE_PATH", "./instance/users.db"),
		AppEnv:            getEnv("APP_ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		CORSOrigins:       parseCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		JWTSecret:         getEnv("JWT_SECRET", defaultJWTSecret),
		SessionTTL:        sessionTTL,
		TumorModelPath:    getEnv("TUMOR_MODEL_PATH", "./models/tumor_model.json"),
		DiabetesModelPath: getEnv("DIABETES_MODEL_PATH", "./models/diabetes_model.json"),
		SMTPHost:          getEnv("SMTP_HOST", "localhost"),
		SMTPPort:          smtpPort,
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:          getEnv("SMTP_FROM", "no-reply@mediinsight.local"),
		OTPTTL:            otpTTL,
		OTPSweepSpec:      getEnv("OTP_SWEEP_SPEC", "@every 1m"),
		ChatAPIURL:        getEnv("CHAT_API_URL", "https://router.huggingface.co/v1/chat/completions"),
		ChatAPIKey:        getEnv("CHAT_API_KEY", ""),
		ChatModel:         getEnv("CHAT_MODEL", "meta-llama/Meta-Llama-3-8B-Instruct"),
		DashboardURL:      getEnv("DASHBOARD_URL", "http://localhost:8501"),
		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminEmail:        getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword:     getEnv("ADMIN_PASSWORD", "admin123"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.IsProduction() && cfg.JWTSecret == defaultJWTSecret {
		return nil, errors.New("JWT_SECRET must be set in production")
	}
	return cfg, nil
}

// IsProduction reports whether cookies should be marked Secure.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
