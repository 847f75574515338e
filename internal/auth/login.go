package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"opsboard/internal/apperrors"
	"opsboard/internal/db"
	"opsboard/internal/events"
	"opsboard/internal/models"
	"opsboard/internal/roles"
)

// LoginResult is what a successful login hands back to the HTTP layer.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
	Route     string
}

// Authenticator validates credentials against the directory, persists a
// session and dispatches the user's jabatan to a route. It owns the
// session lifecycle hooks: a login writes the session, an unroutable
// jabatan erases it, a logout erases it.
type Authenticator struct {
	bus *events.Bus
}

// NewAuthenticator wires the authenticator to the event bus.
func NewAuthenticator(bus *events.Bus) *Authenticator {
	return &Authenticator{bus: bus}
}

// Login runs the full flow: validation, directory lookup, password check,
// session write, role dispatch. The session is persisted before dispatch;
// if the role router rejects, onUnauthorized erases it before the call
// returns, so an unroutable jabatan never leaves a session behind.
func (a *Authenticator) Login(username, password string) (*LoginResult, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, apperrors.ErrValidation
	}

	user, err := db.FindUserByUsername(username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			a.rejected(username, "username not found")
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		a.rejected(user.Username, "wrong password")
		return nil, apperrors.ErrBadCredential
	}

	token, expiresAt, err := a.onLogin(user)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	route, err := roles.Resolve(user.Jabatan)
	if err != nil {
		a.onUnauthorized(token)
		a.rejected(user.Username, "no route for jabatan "+user.Jabatan)
		return nil, err
	}

	if err := SetSessionRoute(token, route); err != nil {
		a.onUnauthorized(token)
		return nil, fmt.Errorf("store route: %w", err)
	}

	a.bus.Publish(events.Event{
		Type:    events.LoginSucceeded,
		Message: fmt.Sprintf("%s masuk sebagai %s", user.Username, user.Jabatan),
	})
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user, Route: route}, nil
}

// Logout erases the session for a token. Unknown tokens are a no-op.
func (a *Authenticator) Logout(token string) {
	a.onLogout(token)
}

// onLogin persists the session record.
func (a *Authenticator) onLogin(user *models.User) (string, time.Time, error) {
	return CreateSession(user)
}

// onUnauthorized erases a just-written session whose role dispatch failed.
func (a *Authenticator) onUnauthorized(token string) {
	DeleteSession(token)
}

// onLogout erases the session on explicit logout.
func (a *Authenticator) onLogout(token string) {
	DeleteSession(token)
}

func (a *Authenticator) rejected(username, reason string) {
	a.bus.Publish(events.Event{
		Type:     events.LoginRejected,
		Severity: events.SeverityWarning,
		Message:  fmt.Sprintf("login ditolak untuk %s: %s", strings.ToUpper(username), reason),
	})
}
