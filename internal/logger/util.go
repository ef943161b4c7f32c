package logger

import (
	"strings"
	"time"
)

// Status maps error to a unified status string for logs.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Took returns rounded duration since start for compact logging.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds duration to the nearest millisecond for consistent logging.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SanitizeLimit trims whitespace, collapses newlines, and truncates s to max runes.
func SanitizeLimit(s string, max int) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\n", " ")
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
