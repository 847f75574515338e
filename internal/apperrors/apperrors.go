// Package apperrors defines the error taxonomy shared by the login flow,
// role dispatch and the device-control path. Every error here is recovered
// at its point of origin and surfaced as an in-app notice; none is fatal.
package apperrors

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation — a required field is empty; caught before any lookup.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound — no directory entry for the submitted username.
	ErrNotFound = errors.New("username not found")
	// ErrBadCredential — the stored password does not match the submitted one.
	ErrBadCredential = errors.New("wrong password")
	// ErrUnauthorized — no route is assigned to the user's jabatan.
	ErrUnauthorized = errors.New("no route for role")
	// ErrTransportUnavailable — the transport is absent or not connected.
	ErrTransportUnavailable = errors.New("transport unavailable")
	// ErrTransportError — a connect, write or subscribe call failed.
	ErrTransportError = errors.New("transport error")
)

// HTTPStatus maps a taxonomy error to a response status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadCredential):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrTransportUnavailable):
		return http.StatusConflict
	case errors.Is(err, ErrTransportError):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage returns the notice shown to the operator. The strings match
// the dashboard UI copy, which is Indonesian.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "Username dan password harus diisi."
	case errors.Is(err, ErrNotFound):
		return "Username tidak ditemukan."
	case errors.Is(err, ErrBadCredential):
		return "Password yang Anda masukkan salah."
	case errors.Is(err, ErrUnauthorized):
		return "Anda tidak memiliki halaman yang ditetapkan untuk jabatan Anda."
	case errors.Is(err, ErrTransportUnavailable):
		return "Hubungkan ke perangkat terlebih dahulu."
	case errors.Is(err, ErrTransportError):
		return "Gagal mengirim perintah ke perangkat."
	default:
		return "Terjadi kesalahan pada server."
	}
}
