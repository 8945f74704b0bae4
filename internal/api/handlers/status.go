package handlers

import (
	"net/http"
	"time"

	"github.com/amaumene/aniwrap/internal/models"
	"github.com/sirupsen/logrus"
)

// StatusHandler handles status requests
type StatusHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *models.Database, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		db:     db,
		logger: logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	TotalUsers      int            `json:"total_users"`
	RefreshedUsers  int            `json:"refreshed_users"`
	PendingUsers    int            `json:"pending_users"`
	UsersByProvider map[string]int `json:"users_by_provider"`
	LastRefreshedAt *time.Time     `json:"last_refreshed_at,omitempty"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	users, err := h.db.GetAllUsers()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get users")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	response := StatusResponse{
		TotalUsers:      len(users),
		UsersByProvider: make(map[string]int),
	}

	for _, user := range users {
		response.UsersByProvider[string(user.Provider)]++

		if user.LastRefreshedAt == nil {
			response.PendingUsers++
			continue
		}
		response.RefreshedUsers++
		if response.LastRefreshedAt == nil || user.LastRefreshedAt.After(*response.LastRefreshedAt) {
			response.LastRefreshedAt = user.LastRefreshedAt
		}
	}

	writeJSON(w, http.StatusOK, response)
}
