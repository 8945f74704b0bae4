package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/amaumene/aniwrap/internal/controllers"
	"github.com/amaumene/aniwrap/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// UsersHandler manages the user registry and stored snapshots
type UsersHandler struct {
	db          *models.Database
	refreshCtrl *controllers.RefreshController
	logger      *logrus.Logger
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(db *models.Database, refreshCtrl *controllers.RefreshController, logger *logrus.Logger) *UsersHandler {
	return &UsersHandler{
		db:          db,
		refreshCtrl: refreshCtrl,
		logger:      logger,
	}
}

// List returns every registered user
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.db.GetAllUsers()
	if err != nil {
		writeFailure(w, h.logger, err, http.StatusInternalServerError, "Failed to list users")
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Create registers a user from a {"provider","username"} body
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userParams
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := requestValidator().Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "provider must be anilist or mal and username is required")
		return
	}

	user, err := h.db.CreateUser(models.Provider(req.Provider), req.Username)
	if err != nil {
		writeFailure(w, h.logger, err, http.StatusInternalServerError, "Failed to register user")
		return
	}

	h.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"provider": user.Provider,
		"username": user.Username,
	}).Info("User registered")
	writeJSON(w, http.StatusCreated, user)
}

// Delete removes a user and their snapshots
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.db.DeleteUser(id); err != nil {
		writeFailure(w, h.logger, err, http.StatusInternalServerError, "Failed to delete user")
		return
	}
	h.logger.WithField("user_id", id).Info("User deleted")
	w.WriteHeader(http.StatusNoContent)
}

// Refresh computes and stores a snapshot for one user now
func (h *UsersHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	user, err := h.db.GetUserByID(chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, h.logger, err, http.StatusInternalServerError, "Failed to get user")
		return
	}

	snapshot, err := h.refreshCtrl.RefreshUser(r.Context(), user)
	if err != nil {
		writeFailure(w, h.logger, err, http.StatusBadGateway, "Failed to refresh snapshot")
		return
	}
	writeJSON(w, http.StatusCreated, snapshot)
}

// Snapshots returns a user's stored snapshots, newest first
func (h *UsersHandler) Snapshots(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.db.GetUserByID(id); err != nil {
		writeFailure(w, h.logger, err, http.StatusInternalServerError, "Failed to get user")
		return
	}

	snapshots, err := h.db.GetSnapshotsByUserID(id)
	if err != nil {
		writeFailure(w, h.logger, err, http.StatusInternalServerError, "Failed to get snapshots")
		return
	}
	if snapshots == nil {
		snapshots = []*models.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snapshots)
}

// LatestSnapshot returns a user's most recent snapshot
func (h *UsersHandler) LatestSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.db.GetLatestSnapshot(chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, h.logger, err, http.StatusInternalServerError, "Failed to get snapshot")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}
