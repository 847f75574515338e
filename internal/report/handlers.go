package report

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"opsboard/internal/apperrors"
	"opsboard/internal/auth"
	"opsboard/internal/db"
	"opsboard/internal/models"
)

const dateParam = "2006-01-02"

// Handlers serves the activity log and the HRD print endpoint.
type Handlers struct{}

func NewHandlers() *Handlers {
	return &Handlers{}
}

// CreateActivity records an activity log entry. The username defaults to
// the authenticated user when the body omits it.
func (h *Handlers) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var a models.ActivityLog
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(a.Description) == "" {
		jsonError(w, http.StatusBadRequest, "Deskripsi kegiatan wajib diisi.")
		return
	}
	if a.Username == "" {
		if s := auth.GetSessionFromContext(r); s != nil {
			a.Username = s.Username
		}
	}
	if a.Username == "" {
		jsonError(w, http.StatusBadRequest, "Nama karyawan wajib diisi.")
		return
	}

	if err := db.InsertActivityLog(&a); err != nil {
		log.Printf("⚠️ Failed to insert activity log: %v", err)
		jsonError(w, http.StatusInternalServerError, apperrors.UserMessage(err))
		return
	}

	jsonResponse(w, http.StatusCreated, a)
}

// ListActivities returns activity records, optionally filtered by
// username and a creation-date window (?username=&from=&to=, dates as
// YYYY-MM-DD, to exclusive).
func (h *Handlers) ListActivities(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")

	from, err := parseDateParam(r.URL.Query().Get("from"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid from date")
		return
	}
	to, err := parseDateParam(r.URL.Query().Get("to"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid to date")
		return
	}

	logs, err := db.ListActivityLogs(username, from, to)
	if err != nil {
		log.Printf("⚠️ Failed to list activity logs: %v", err)
		jsonError(w, http.StatusInternalServerError, apperrors.UserMessage(err))
		return
	}
	if logs == nil {
		logs = []models.ActivityLog{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{"activities": logs})
}

// PrintHRD renders the daily activity report as a printable HTML
// document (?date=YYYY-MM-DD, default today; ?username= optional).
func (h *Handlers) PrintHRD(w http.ResponseWriter, r *http.Request) {
	day := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.ParseInLocation(dateParam, raw, time.Local)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "Invalid date")
			return
		}
		day = parsed
	}

	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local)
	to := from.AddDate(0, 0, 1)

	logs, err := db.ListActivityLogs(r.URL.Query().Get("username"), &from, &to)
	if err != nil {
		log.Printf("⚠️ Failed to list activity logs: %v", err)
		jsonError(w, http.StatusInternalServerError, apperrors.UserMessage(err))
		return
	}

	title := "Laporan Kegiatan Karyawan - " + FormatReportDate(from)
	html, err := RenderHRD(logs, title, time.Now())
	if err != nil {
		log.Printf("⚠️ Failed to render HRD report: %v", err)
		jsonError(w, http.StatusInternalServerError, "Gagal membuat laporan.")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

func parseDateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateParam, raw, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}
