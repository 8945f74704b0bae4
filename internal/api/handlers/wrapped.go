package handlers

import (
	"net/http"

	"github.com/amaumene/aniwrap/internal/controllers"
	"github.com/amaumene/aniwrap/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// TruncatedHeader is set on wrapped responses computed from a partial history
const TruncatedHeader = "X-Aniwrap-Truncated"

// WrappedHandler serves raw watch histories and computed summaries
type WrappedHandler struct {
	wrappedCtrl *controllers.WrappedController
	logger      *logrus.Logger
}

// NewWrappedHandler creates a new wrapped handler
func NewWrappedHandler(wrappedCtrl *controllers.WrappedController, logger *logrus.Logger) *WrappedHandler {
	return &WrappedHandler{
		wrappedCtrl: wrappedCtrl,
		logger:      logger,
	}
}

// params validates the {provider}/{username} path and the ?year= query
func (h *WrappedHandler) params(w http.ResponseWriter, r *http.Request) (models.Provider, string, int, bool) {
	params := userParams{
		Provider: chi.URLParam(r, "provider"),
		Username: chi.URLParam(r, "username"),
	}
	if err := requestValidator().Struct(params); err != nil {
		writeError(w, http.StatusBadRequest, "provider must be anilist or mal and username is required")
		return "", "", 0, false
	}

	year, err := parseYear(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", "", 0, false
	}

	return models.Provider(params.Provider), params.Username, year, true
}

// Watched returns the upstream watch history document
func (h *WrappedHandler) Watched(w http.ResponseWriter, r *http.Request) {
	provider, username, year, ok := h.params(w, r)
	if !ok {
		return
	}

	doc, err := h.wrappedCtrl.WatchHistory(r.Context(), provider, username, year)
	if err != nil {
		writeFailure(w, h.logger, err, http.StatusBadGateway, "Failed to fetch watch history")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// Wrapped returns the computed summary for a user
func (h *WrappedHandler) Wrapped(w http.ResponseWriter, r *http.Request) {
	provider, username, year, ok := h.params(w, r)
	if !ok {
		return
	}

	wrapped, err := h.wrappedCtrl.Wrapped(r.Context(), provider, username, year)
	if err != nil {
		writeFailure(w, h.logger, err, http.StatusBadGateway, "Failed to compute wrapped summary")
		return
	}

	if wrapped.Truncated {
		w.Header().Set(TruncatedHeader, "true")
	}
	writeJSON(w, http.StatusOK, wrapped.Stats)
}
