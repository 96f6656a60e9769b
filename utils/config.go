package utils

import (
	"os"
	"time"

	"github.com/adamspd/patentehub/models"
	"github.com/joho/godotenv"
)

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() *models.Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		LogError("Failed to load .env: %v", err)
	}

	cfg := &models.Config{
		DBPath:             GetEnvOrDefault("DB_PATH", "./patentehub.db"),
		SessionTTL:         GetEnvDuration("SESSION_TTL", models.DefaultSessionTTL),
		BcryptCost:         GetEnvInt("BCRYPT_COST", 10),
		RegisterRateLimit:  GetEnvInt("REGISTER_RATE_LIMIT", 5),
		RegisterRateWindow: GetEnvDuration("REGISTER_RATE_WINDOW", 5*time.Minute),
		LoginRateLimit:     GetEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow:    GetEnvDuration("LOGIN_RATE_WINDOW", 5*time.Minute),
		RedisURL:           os.Getenv("REDIS_URL"),
		TokenSweepSchedule: os.Getenv("TOKEN_SWEEP_SCHEDULE"),
	}

	LogInfo("Config: db=%s sessionTTL=%v bcryptCost=%d redis=%t sweep=%q",
		cfg.DBPath, cfg.SessionTTL, cfg.BcryptCost, cfg.RedisURL != "", cfg.TokenSweepSchedule)
	return cfg
}

// DefaultConfig is LoadConfig without the environment, for tests and tools.
func DefaultConfig() *models.Config {
	return &models.Config{
		DBPath:             ":memory:",
		SessionTTL:         models.DefaultSessionTTL,
		BcryptCost:         10,
		RegisterRateLimit:  5,
		RegisterRateWindow: 5 * time.Minute,
		LoginRateLimit:     10,
		LoginRateWindow:    5 * time.Minute,
	}
}
