package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/amaumene/aniwrap/internal/controllers"
	"github.com/amaumene/aniwrap/internal/models"
	"github.com/amaumene/aniwrap/internal/services/anilist"
	"github.com/amaumene/aniwrap/internal/stats"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// userParams identifies an upstream account
type userParams struct {
	Provider string `json:"provider" validate:"required,oneof=anilist mal"`
	Username string `json:"username" validate:"required,max=64"`
}

// yearParams is the optional year selector on wrapped and watched routes
type yearParams struct {
	Year int `validate:"omitempty,min=1940,max=9999"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// statusFor maps an error to an HTTP status. fallback is used for errors
// with no specific mapping.
func statusFor(err error, fallback int) int {
	var statusErr *anilist.StatusError
	switch {
	case errors.Is(err, controllers.ErrProviderNotSupported):
		return http.StatusNotImplemented
	case errors.Is(err, anilist.ErrUserNotFound),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, stats.ErrMalformedDocument), errors.As(err, &statusErr):
		return http.StatusBadGateway
	default:
		return fallback
	}
}

// writeFailure logs err and answers with its mapped status
func writeFailure(w http.ResponseWriter, logger *logrus.Logger, err error, fallback int, message string) {
	status := statusFor(err, fallback)
	entry := logger.WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Debug(message)
	}
	writeError(w, status, err.Error())
}

// parseYear reads the optional ?year= query parameter. Zero means the current year.
func parseYear(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid year format: " + raw)
	}
	if err := requestValidator().Struct(yearParams{Year: year}); err != nil {
		return 0, errors.New("year must be between 1940 and 9999")
	}
	return year, nil
}
