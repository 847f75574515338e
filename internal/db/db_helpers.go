package db

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

const timeLayout = "2006-01-02 15:04:05"

// randomPassword returns a short random credential for first-run seeding.
func randomPassword() string {
	bytes := make([]byte, 6)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// formatTime renders a timestamp in the canonical sqlite layout.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads a timestamp in the canonical sqlite layout, returning
// nil for empty values.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// nullableTime formats an optional timestamp for storage.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
