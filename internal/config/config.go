package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabasePath string
	Port         int

	// Bearer secret required by the /functions endpoints
	CronSecret string

	OverdueSchedule  string
	ReminderSchedule string
	Location         *time.Location

	AllowedOrigins []string

	DiscordKey         string
	DiscordSecret      string
	DiscordCallbackURL string
	GoogleKey          string
	GoogleSecret       string
	GoogleCallbackURL  string
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		DatabasePath:       getenv("DATABASE_PATH", "arena.db"),
		CronSecret:         os.Getenv("CRON_SECRET"),
		OverdueSchedule:    getenv("OVERDUE_SWEEP_SCHEDULE", "0 6 * * *"),
		ReminderSchedule:   getenv("REMINDER_SWEEP_SCHEDULE", "0 8 * * *"),
		DiscordKey:         os.Getenv("DISCORD_KEY"),
		DiscordSecret:      os.Getenv("DISCORD_SECRET"),
		DiscordCallbackURL: os.Getenv("DISCORD_CALLBACK_URL"),
		GoogleKey:          os.Getenv("GOOGLE_KEY"),
		GoogleSecret:       os.Getenv("GOOGLE_SECRET"),
		GoogleCallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),
	}

	port, err := strconv.Atoi(getenv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", port)
	}
	cfg.Port = port

	if cfg.CronSecret == "" {
		return nil, fmt.Errorf("CRON_SECRET environment variable is not set")
	}

	loc, err := time.LoadLocation(getenv("TZ_LOCATION", "America/Sao_Paulo"))
	if err != nil {
		return nil, fmt.Errorf("invalid TZ_LOCATION: %w", err)
	}
	cfg.Location = loc

	for _, origin := range strings.Split(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
