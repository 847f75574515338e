package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Browsers cannot set an Authorization header on a WebSocket upgrade, so
// the dashboard first asks an authenticated endpoint for a short-lived
// ticket and passes it as a query parameter. Tickets are HS256-signed
// and bound to the issuing session.
const ticketTTL = 30 * time.Second

type ticketClaims struct {
	SessionToken string `json:"sid"`
	jwt.RegisteredClaims
}

// TicketService mints and verifies WebSocket tickets.
type TicketService struct {
	secret []byte
}

// NewTicketService creates a ticket service with the given signing secret.
// An empty secret gets a random one, which invalidates tickets across
// restarts; fine for a single-process server.
func NewTicketService(secret string) *TicketService {
	if secret == "" {
		secret = GenerateToken()
	}
	return &TicketService{secret: []byte(secret)}
}

// Issue mints a ticket bound to the given session token.
func (s *TicketService) Issue(sessionToken, username string) (string, error) {
	now := time.Now()
	claims := ticketClaims{
		SessionToken: sessionToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ticketTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// IssueAnonymous mints a ticket without a session binding. Used only
// when authentication is disabled; the signature and expiry still hold.
func (s *TicketService) IssueAnonymous() (string, error) {
	return s.Issue("", "anonymous")
}

// Verify checks a ticket and returns the live session it is bound to.
// A ticket whose session has since been erased is rejected. Anonymous
// tickets carry no session and pass on signature and expiry alone.
func (s *TicketService) Verify(ticket string) (string, error) {
	var claims ticketClaims
	_, err := jwt.ParseWithClaims(ticket, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", fmt.Errorf("invalid ticket: %w", err)
	}

	if claims.SessionToken != "" && GetSession(claims.SessionToken) == nil {
		return "", fmt.Errorf("ticket session no longer valid")
	}
	return claims.Subject, nil
}
