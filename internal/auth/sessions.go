package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"opsboard/internal/db"
	"opsboard/internal/models"
)

const sessionTTL = 24 * time.Hour * 7

// GenerateToken creates a secure random token
func GenerateToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// GetSession retrieves a session by token
func GetSession(token string) *models.Session {
	if token == "" {
		return nil
	}

	var session models.Session
	var expiresAt string

	err := db.DB.QueryRow(`
		SELECT s.token, s.user_id, u.username, s.jabatan, s.route, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > datetime('now')
	`, token).Scan(&session.Token, &session.UserID, &session.Username,
		&session.Jabatan, &session.Route, &expiresAt)

	if err != nil {
		return nil
	}

	session.ExpiresAt, _ = time.Parse("2006-01-02 15:04:05", expiresAt)
	return &session
}

// CreateSession persists a new session for a user. The route is written
// afterwards by SetSessionRoute once role dispatch has resolved it; a
// session whose dispatch fails is erased before the login call returns.
func CreateSession(user *models.User) (string, time.Time, error) {
	token := GenerateToken()
	// Stored in UTC so the expiry comparison against datetime('now') holds.
	expiresAt := time.Now().UTC().Add(sessionTTL)

	_, err := db.DB.Exec(
		"INSERT INTO sessions (token, user_id, jabatan, expires_at) VALUES (?, ?, ?, ?)",
		token, user.ID, user.Jabatan, expiresAt.Format("2006-01-02 15:04:05"),
	)
	return token, expiresAt, err
}

// SetSessionRoute records the resolved route on an existing session.
func SetSessionRoute(token, route string) error {
	_, err := db.DB.Exec("UPDATE sessions SET route = ? WHERE token = ?", route, token)
	return err
}

// DeleteSession removes a session
func DeleteSession(token string) {
	db.DB.Exec("DELETE FROM sessions WHERE token = ?", token)
}

// CleanupExpiredSessions removes expired sessions from the database
func CleanupExpiredSessions() {
	db.DB.Exec("DELETE FROM sessions WHERE expires_at < datetime('now')")
}
