package auth

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"opsboard/internal/apperrors"
	"opsboard/internal/metrics"
	"opsboard/internal/models"
)

// isSecureRequest checks if the request came over HTTPS (directly or via reverse proxy)
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	return strings.EqualFold(proto, "https")
}

// Status returns authentication status
func Status(config models.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := GetSessionFromRequest(r)

		resp := map[string]any{
			"auth_enabled":  config.AuthEnabled,
			"authenticated": session != nil,
		}
		if session != nil {
			resp["username"] = session.Username
			resp["jabatan"] = session.Jabatan
			resp["route"] = session.Route
		}
		jsonResponse(w, resp)
	}
}

// Login handles the login form: validates, authenticates against the
// directory, persists the session and answers with the resolved route.
func Login(config models.Config, authn *Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !config.AuthEnabled {
			jsonResponse(w, map[string]any{"success": true, "route": "/"})
			return
		}

		var creds struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			taxonomyError(w, apperrors.ErrValidation)
			return
		}

		result, err := authn.Login(creds.Username, creds.Password)
		if err != nil {
			metrics.Logins.WithLabelValues("rejected").Inc()
			taxonomyError(w, err)
			return
		}
		metrics.Logins.WithLabelValues("success").Inc()

		http.SetCookie(w, &http.Cookie{
			Name:     "session",
			Value:    result.Token,
			Path:     "/",
			Expires:  result.ExpiresAt,
			HttpOnly: true,
			Secure:   isSecureRequest(r),
			SameSite: http.SameSiteLaxMode,
		})

		log.Printf("🔓 Login: %s (%s)", result.User.Username, result.User.Jabatan)
		jsonResponse(w, map[string]any{
			"success":  true,
			"token":    result.Token,
			"username": result.User.Username,
			"jabatan":  result.User.Jabatan,
			"route":    result.Route,
			"message":  "Selamat Datang, " + result.User.Username + "!",
		})
	}
}

// Logout handles user logout
func Logout(authn *Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := GetSessionFromRequest(r)
		if session != nil {
			authn.Logout(session.Token)
			log.Printf("🔒 Logout: %s", session.Username)
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "session",
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   isSecureRequest(r),
			SameSite: http.SameSiteLaxMode,
		})

		jsonResponse(w, map[string]string{"status": "logged_out"})
	}
}

// WSTicket mints a short-lived WebSocket ticket for the session. With
// auth disabled the ticket is anonymous, so the realtime push keeps
// working without a session.
func WSTicket(config models.Config, tickets *TicketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := GetSessionFromContext(r)
		if session == nil && config.AuthEnabled {
			taxonomyError(w, apperrors.ErrUnauthorized)
			return
		}

		var ticket string
		var err error
		if session != nil {
			ticket, err = tickets.Issue(session.Token, session.Username)
		} else {
			ticket, err = tickets.IssueAnonymous()
		}
		if err != nil {
			log.Printf("⚠️  Failed to issue WS ticket: %v", err)
			http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
			return
		}
		jsonResponse(w, map[string]string{"ticket": ticket})
	}
}

// GetCurrentUser returns current user info. With auth disabled the
// middleware passes requests through without a session; answer with an
// anonymous payload instead of dereferencing one.
func GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r)
	if session == nil {
		jsonResponse(w, map[string]any{
			"authenticated": false,
			"username":      "",
			"jabatan":       "",
			"route":         "/",
		})
		return
	}
	jsonResponse(w, map[string]any{
		"authenticated": true,
		"id":            session.UserID,
		"username":      session.Username,
		"jabatan":       session.Jabatan,
		"route":         session.Route,
	})
}

func jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("⚠️  Failed to encode JSON response: %v", err)
	}
}

// taxonomyError writes a taxonomy error with its status code and the
// user-facing Indonesian notice.
func taxonomyError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperrors.HTTPStatus(err))
	json.NewEncoder(w).Encode(map[string]string{"error": apperrors.UserMessage(err)})
}
