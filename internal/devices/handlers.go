package devices

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"opsboard/internal/apperrors"
)

// Handlers exposes the controller over HTTP.
type Handlers struct {
	ctrl *Controller
}

// NewHandlers wraps a controller.
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{ctrl: ctrl}
}

// ListDevices returns the merged device list plus the updating markers.
func (h *Handlers) ListDevices(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]any{
		"devices":  h.ctrl.Devices(),
		"updating": h.ctrl.Updating(),
	})
}

// ListSensors returns the merged sensor list.
func (h *Handlers) ListSensors(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]any{"sensors": h.ctrl.Sensors()})
}

// Toggle flips one device. The request carries the state the client saw;
// the new value is its negation, not a re-read.
func (h *Handlers) Toggle(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")

	var req struct {
		State bool `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Permintaan tidak valid.", http.StatusBadRequest)
		return
	}

	if err := h.ctrl.Toggle(r.Context(), deviceID, req.State); err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			jsonError(w, "Perangkat tidak dikenal.", http.StatusNotFound)
			return
		}
		log.Printf("⚠️  Toggle %s: %v", deviceID, err)
		jsonError(w, apperrors.UserMessage(err), apperrors.HTTPStatus(err))
		return
	}

	jsonResponse(w, map[string]any{"success": true, "id": deviceID, "state": !req.State})
}

// Connect runs the user connect action.
func (h *Handlers) Connect(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Connect(r.Context()); err != nil {
		log.Printf("⚠️  Connect %s: %v", h.ctrl.TransportName(), err)
		jsonError(w, apperrors.UserMessage(err), apperrors.HTTPStatus(err))
		return
	}
	jsonResponse(w, map[string]any{
		"status":    string(h.ctrl.Status()),
		"transport": h.ctrl.TransportName(),
	})
}

// Disconnect runs the user disconnect action.
func (h *Handlers) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.Disconnect(); err != nil {
		jsonError(w, "Koneksi sudah terputus.", http.StatusConflict)
		return
	}
	jsonResponse(w, map[string]string{"status": string(h.ctrl.Status())})
}

// ConnectionStatus reports the state machine position for the UI.
func (h *Handlers) ConnectionStatus(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]string{
		"status":    string(h.ctrl.Status()),
		"transport": h.ctrl.TransportName(),
	})
}

func jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("⚠️  Failed to encode JSON response: %v", err)
	}
}

func jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
