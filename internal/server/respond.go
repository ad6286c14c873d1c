package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/voyagen/wolfflix/internal/actions"
	"github.com/voyagen/wolfflix/internal/chat"
	"github.com/voyagen/wolfflix/internal/library"
	"github.com/voyagen/wolfflix/internal/logging"
	"github.com/voyagen/wolfflix/internal/service"
	"github.com/voyagen/wolfflix/internal/tmdb"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// APIError is the standard error envelope for all error responses.
type APIError struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// parseID extracts a path parameter by name and parses it as int64.
func parseID(r *http.Request, param string) (int64, error) {
	v := chi.URLParam(r, param)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %s", param, v)
	}
	return id, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("writeJSON")
	}
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func writeErr(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= 500 {
		logging.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("request failed")
	}
	writeJSON(w, status, APIError{
		Status: status,
		Error:  http.StatusText(status),
		Detail: err.Error(),
	})
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	var (
		userErr    *actions.UserError
		payloadErr *actions.InvalidPayloadError
		invalid    *library.ValidationError
	)
	switch {
	case errors.Is(err, actions.ErrUnknownAction), errors.Is(err, tmdb.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &userErr):
		return http.StatusConflict
	case errors.As(err, &payloadErr), errors.As(err, &invalid), errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSemanticDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// fail writes err with the status its type maps to.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	writeErr(w, r, statusFor(err), err)
}
