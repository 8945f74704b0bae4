package controllers

import (
	"context"
	"errors"
	"fmt"

	"github.com/amaumene/aniwrap/internal/metrics"
	"github.com/amaumene/aniwrap/internal/models"
	"github.com/sirupsen/logrus"
)

// RefreshController stores wrapped snapshots for registered users
type RefreshController struct {
	db          *models.Database
	wrappedCtrl *WrappedController
	retention   int
	logger      *logrus.Logger
}

// NewRefreshController creates a new refresh controller
func NewRefreshController(db *models.Database, wrappedCtrl *WrappedController, retention int, logger *logrus.Logger) *RefreshController {
	return &RefreshController{
		db:          db,
		wrappedCtrl: wrappedCtrl,
		retention:   retention,
		logger:      logger,
	}
}

// RefreshUser computes a fresh snapshot for one user and prunes old ones
func (c *RefreshController) RefreshUser(ctx context.Context, user *models.User) (*models.Snapshot, error) {
	wrapped, err := c.wrappedCtrl.Wrapped(ctx, user.Provider, user.Username, 0)
	if err != nil {
		return nil, err
	}

	snapshot := &models.Snapshot{
		UserID:       user.ID,
		Year:         wrapped.Year,
		HasNextChunk: wrapped.Truncated,
		Stats:        *wrapped.Stats,
	}
	if err := c.db.CreateSnapshot(snapshot); err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}

	if err := c.db.PruneSnapshots(user.ID, c.retention); err != nil {
		// The new snapshot is stored; pruning is retried on the next refresh
		c.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to prune snapshots")
	}

	return snapshot, nil
}

// RefreshAll refreshes every registered user in turn. A failing user does
// not stop the others.
func (c *RefreshController) RefreshAll(ctx context.Context) error {
	users, err := c.db.GetAllUsers()
	if err != nil {
		return fmt.Errorf("failed to get users: %w", err)
	}

	c.logger.WithField("count", len(users)).Info("Refreshing snapshots")

	failed := 0
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return err
		}

		log := c.logger.WithFields(logrus.Fields{
			"user_id":  user.ID,
			"provider": user.Provider,
			"username": user.Username,
		})

		if !user.Provider.Supported() {
			metrics.SnapshotRefreshesTotal.WithLabelValues("skipped").Inc()
			log.Debug("Skipping user with unsupported provider")
			continue
		}

		snapshot, err := c.RefreshUser(ctx, user)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			metrics.SnapshotRefreshesTotal.WithLabelValues("error").Inc()
			log.WithError(err).Error("Failed to refresh snapshot")
			failed++
			continue
		}

		metrics.SnapshotRefreshesTotal.WithLabelValues("success").Inc()
		log.WithField("records", snapshot.Stats.N).Info("Snapshot refreshed")
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d snapshot refreshes failed", failed, len(users))
	}
	return nil
}
