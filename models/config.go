package models

import "time"

// Config holds runtime settings loaded from the environment
type Config struct {
	DBPath             string
	SessionTTL         time.Duration
	BcryptCost         int
	RegisterRateLimit  int
	RegisterRateWindow time.Duration
	LoginRateLimit     int
	LoginRateWindow    time.Duration
	RedisURL           string
	TokenSweepSchedule string
}
