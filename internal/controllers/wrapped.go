package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/aniwrap/internal/metrics"
	"github.com/amaumene/aniwrap/internal/models"
	"github.com/amaumene/aniwrap/internal/services/anilist"
	"github.com/amaumene/aniwrap/internal/stats"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrProviderNotSupported is returned for providers that are known but have no client yet
var ErrProviderNotSupported = errors.New("provider not supported")

// WatchHistoryFetcher retrieves a user's raw watch history
type WatchHistoryFetcher interface {
	GetWatchHistory(ctx context.Context, username string, lo, hi time.Time) (*anilist.MediaListCollection, error)
}

// Wrapped is a computed summary together with how it was obtained
type Wrapped struct {
	Year      int
	Truncated bool // upstream had more pages than were fetched
	Stats     *stats.Result
}

// WrappedController computes wrapped summaries from upstream watch history
type WrappedController struct {
	fetcher WatchHistoryFetcher
	now     func() time.Time
	tracer  trace.Tracer
	logger  *logrus.Logger
}

// NewWrappedController creates a new wrapped controller
func NewWrappedController(fetcher WatchHistoryFetcher, logger *logrus.Logger) *WrappedController {
	return &WrappedController{
		fetcher: fetcher,
		now:     time.Now,
		tracer:  otel.Tracer("github.com/amaumene/aniwrap/internal/controllers"),
		logger:  logger,
	}
}

// reference returns the clock reading used for a requested year. Year 0
// means the current one.
func (c *WrappedController) reference(year int) time.Time {
	now := c.now().UTC()
	if year == 0 || year == now.Year() {
		return now
	}
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// WatchHistory fetches the raw document for a user over the window around year
func (c *WrappedController) WatchHistory(ctx context.Context, provider models.Provider, username string, year int) (*anilist.MediaListCollection, error) {
	if !provider.Supported() {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotSupported, provider)
	}

	lo, hi := anilist.DefaultWindow(c.reference(year))
	return c.fetcher.GetWatchHistory(ctx, username, lo, hi)
}

// Wrapped fetches a user's history and computes the summary for year
func (c *WrappedController) Wrapped(ctx context.Context, provider models.Provider, username string, year int) (*Wrapped, error) {
	ctx, span := c.tracer.Start(ctx, "wrapped.compute")
	defer span.End()

	ref := c.reference(year)
	span.SetAttributes(
		attribute.String("wrapped.provider", string(provider)),
		attribute.String("wrapped.username", username),
		attribute.Int("wrapped.year", ref.Year()),
	)

	wrapped, err := c.compute(ctx, provider, username, ref)
	if err != nil {
		metrics.WrappedComputationsTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.WrappedComputationsTotal.WithLabelValues("success").Inc()
	span.SetAttributes(
		attribute.Int("wrapped.records", wrapped.Stats.N),
		attribute.Bool("wrapped.truncated", wrapped.Truncated),
	)
	return wrapped, nil
}

func (c *WrappedController) compute(ctx context.Context, provider models.Provider, username string, ref time.Time) (*Wrapped, error) {
	doc, err := c.WatchHistory(ctx, provider, username, ref.Year())
	if err != nil {
		return nil, err
	}

	records, err := stats.Flatten(doc)
	if err != nil {
		c.logger.WithError(err).WithField("username", username).Error("Rejected watch history")
		return nil, fmt.Errorf("failed to flatten watch history: %w", err)
	}

	calc := stats.NewCalculator(c.logger)
	calc.Now = func() time.Time { return ref }
	result := calc.Calculate(records)

	c.logger.WithFields(logrus.Fields{
		"username":  username,
		"year":      ref.Year(),
		"records":   result.N,
		"completed": result.NCompleted,
	}).Info("Computed wrapped summary")

	return &Wrapped{
		Year:      ref.Year(),
		Truncated: doc.HasNextChunk,
		Stats:     result,
	}, nil
}
