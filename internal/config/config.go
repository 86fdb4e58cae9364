package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Coach modes select which LLM client writes recommendation tips.
const (
	CoachAPI  = "api"
	CoachCLI  = "cli"
	CoachMock = "mock"
	CoachOff  = "off"
)

type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret          string
	CORSAllowedOrigins []string

	// Location is the zone used to decide calendar days for streaks and the
	// shortcut of the day.
	Location            *time.Location
	StreakCheckInterval time.Duration

	CoachMode       string
	AnthropicModel  string
	AnthropicAPIKey string
	ClaudeCLIPath   string
}

// DSN returns the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] no .env file, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          getEnv("DB_USER", "sensei_user"),
		DBPassword:      getEnv("DB_PASSWORD", "sensei_password"),
		DBName:          getEnv("DB_NAME", "shortcut_sensei"),
		DBSSLMode:       getEnv("DB_SSLMODE", "disable"),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		CoachMode:       strings.ToLower(getEnv("COACH_MODE", CoachOff)),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		ClaudeCLIPath:   getEnv("CLAUDE_CLI_PATH", "claude"),
	}

	for _, origin := range strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	interval, err := time.ParseDuration(getEnv("STREAK_CHECK_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid STREAK_CHECK_INTERVAL: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid STREAK_CHECK_INTERVAL: must be positive, got %s", interval)
	}
	cfg.StreakCheckInterval = interval

	switch cfg.CoachMode {
	case CoachAPI, CoachCLI, CoachMock, CoachOff:
	default:
		return nil, fmt.Errorf("invalid COACH_MODE %q: want api, cli, mock or off", cfg.CoachMode)
	}
	if cfg.CoachMode == CoachAPI && cfg.AnthropicAPIKey == "" {
		log.Println("[config] COACH_MODE=api without ANTHROPIC_API_KEY, coach tips will fail")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
