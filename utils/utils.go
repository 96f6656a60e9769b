package utils

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Environment utilities
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := cast.ToIntE(value); err == nil {
			return intVal
		}
		LogError("Invalid integer for %s: %q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := cast.ToDurationE(value); err == nil && d > 0 {
			return d
		}
		LogError("Invalid duration for %s: %q, using %v", key, value, defaultValue)
	}
	return defaultValue
}

// Text utilities
var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Sanitize strips angle-bracket markup and surrounding whitespace.
func Sanitize(s string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(s, ""))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
