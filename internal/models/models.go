package models

import "time"

// User is one record from the pre-seeded employee directory.
// The directory is read-only from the dashboard's point of view:
// login looks a user up, nothing here ever writes one.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Jabatan      string `json:"jabatan"`
}

// Session represents an active login.
// Route is resolved once at login time and stored alongside the user,
// so protected views never re-run role dispatch.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Jabatan   string    `json:"jabatan"`
	Route     string    `json:"route"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ActivityLog is one HRD activity record. Produced by the activity
// tracking endpoint, consumed read-only by the print report.
type ActivityLog struct {
	ID                  string     `json:"id"`
	Username            string     `json:"username"`
	Description         string     `json:"description"`
	CreatedAt           time.Time  `json:"createdAt"`
	TimestampInProgress *time.Time `json:"timestampInProgress,omitempty"`
	TimestampCompleted  *time.Time `json:"timestampCompleted,omitempty"`
	TargetTimestamp     *time.Time `json:"targetTimestamp,omitempty"`
	PhotoInitial        string     `json:"photoInitial,omitempty"`
	PhotoInProgress     string     `json:"photoInProgress,omitempty"`
	PhotoCompleted      string     `json:"photoCompleted,omitempty"`
}

// Config holds server configuration
type Config struct {
	Port        string
	DBPath      string
	AdminUser   string
	AdminPass   string
	AuthEnabled bool

	// Transport selects the device-control backend: bluetooth, mqtt or postgres.
	Transport string

	MQTTURL     string
	PostgresDSN string
	RedisAddr   string

	BLEServiceUUID string
	BLECharUUID    string

	// ShoutrrrURLs are notification targets, comma separated in the env.
	ShoutrrrURLs []string

	WSTicketSecret string
}
