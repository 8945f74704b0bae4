package controllers

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/amaumene/aniwrap/internal/models"
	"github.com/amaumene/aniwrap/internal/services/anilist"
	"github.com/amaumene/aniwrap/internal/stats"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var fixedNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

type fetchCall struct {
	username string
	lo, hi   time.Time
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls []fetchCall
	docs  map[string]*anilist.MediaListCollection
	err   error
}

func (f *fakeFetcher) GetWatchHistory(_ context.Context, username string, lo, hi time.Time) (*anilist.MediaListCollection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{username: username, lo: lo, hi: hi})
	if f.err != nil {
		return nil, f.err
	}
	doc, ok := f.docs[username]
	if !ok {
		return nil, anilist.ErrUserNotFound
	}
	return doc, nil
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func sampleDocument() *anilist.MediaListCollection {
	return &anilist.MediaListCollection{
		HasNextChunk: true,
		Lists: []anilist.MediaListGroup{{
			Name:   "Completed",
			Status: "COMPLETED",
			Entries: []anilist.MediaList{{
				MediaID:     1,
				Score:       floatPtr(8),
				Status:      "COMPLETED",
				CompletedAt: anilist.FuzzyDate{Year: intPtr(2026), Month: intPtr(2), Day: intPtr(14)},
				Media: &anilist.Media{
					Episodes: intPtr(12),
					Genres:   []string{"Romance"},
					Type:     "ANIME",
					Title:    &anilist.MediaTitle{UserPreferred: "Toradora!"},
				},
			}},
		}},
	}
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestWrappedController(fetcher WatchHistoryFetcher) *WrappedController {
	ctrl := NewWrappedController(fetcher, newTestLogger())
	ctrl.now = func() time.Time { return fixedNow }
	return ctrl
}

func TestWrapped(t *testing.T) {
	fetcher := &fakeFetcher{docs: map[string]*anilist.MediaListCollection{"taiga": sampleDocument()}}
	ctrl := newTestWrappedController(fetcher)

	wrapped, err := ctrl.Wrapped(context.Background(), models.ProviderAnilist, "taiga", 0)
	require.NoError(t, err)

	assert.Equal(t, 2026, wrapped.Year)
	assert.True(t, wrapped.Truncated)
	assert.Equal(t, 1, wrapped.Stats.N)
	assert.Equal(t, 12, wrapped.Stats.NEpisodes)
	require.NotNil(t, wrapped.Stats.FirstCompleted)
	assert.Equal(t, 1, wrapped.Stats.FirstCompleted.MediaID)

	require.Len(t, fetcher.calls, 1)
	assert.Equal(t, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), fetcher.calls[0].lo)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), fetcher.calls[0].hi)
}

func TestWrappedForPastYear(t *testing.T) {
	fetcher := &fakeFetcher{docs: map[string]*anilist.MediaListCollection{"taiga": sampleDocument()}}
	ctrl := newTestWrappedController(fetcher)

	wrapped, err := ctrl.Wrapped(context.Background(), models.ProviderAnilist, "taiga", 2024)
	require.NoError(t, err)

	assert.Equal(t, 2024, wrapped.Year)
	assert.Nil(t, wrapped.Stats.FirstCompleted, "2026 completion is outside 2024")
	require.Len(t, fetcher.calls, 1)
	assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), fetcher.calls[0].lo)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), fetcher.calls[0].hi)
}

func TestWrappedErrors(t *testing.T) {
	malformed := sampleDocument()
	malformed.Lists[0].Entries[0].Media = nil

	fetcher := &fakeFetcher{docs: map[string]*anilist.MediaListCollection{"broken": malformed}}
	ctrl := newTestWrappedController(fetcher)
	ctx := context.Background()

	_, err := ctrl.Wrapped(ctx, models.ProviderAnilist, "nobody", 0)
	assert.True(t, errors.Is(err, anilist.ErrUserNotFound))

	_, err = ctrl.Wrapped(ctx, models.ProviderAnilist, "broken", 0)
	assert.True(t, errors.Is(err, stats.ErrMalformedDocument))

	_, err = ctrl.Wrapped(ctx, models.ProviderMAL, "broken", 0)
	assert.True(t, errors.Is(err, ErrProviderNotSupported))
	assert.Len(t, fetcher.calls, 2, "unsupported providers never reach the fetcher")
}

func TestWrappedRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	fetcher := &fakeFetcher{docs: map[string]*anilist.MediaListCollection{"taiga": sampleDocument()}}
	ctrl := newTestWrappedController(fetcher)
	ctrl.tracer = tp.Tracer("test")

	_, err := ctrl.Wrapped(context.Background(), models.ProviderAnilist, "taiga", 0)
	require.NoError(t, err)
	_, err = ctrl.Wrapped(context.Background(), models.ProviderAnilist, "nobody", 0)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "wrapped.compute", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Bool("wrapped.truncated", true))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("wrapped.year", 2026))
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func newTestDatabase(t *testing.T) *models.Database {
	t.Helper()
	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "aniwrap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRefreshAll(t *testing.T) {
	db := newTestDatabase(t)
	fetcher := &fakeFetcher{docs: map[string]*anilist.MediaListCollection{"taiga": sampleDocument()}}
	ctrl := NewRefreshController(db, newTestWrappedController(fetcher), 2, newTestLogger())

	taiga, err := db.CreateUser(models.ProviderAnilist, "taiga")
	require.NoError(t, err)
	_, err = db.CreateUser(models.ProviderMAL, "ryuuji")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, ctrl.RefreshAll(context.Background()))
	}

	snapshots, err := db.GetSnapshotsByUserID(taiga.ID)
	require.NoError(t, err)
	assert.Len(t, snapshots, 2, "older snapshots are pruned")
	assert.Equal(t, 2026, snapshots[0].Year)
	assert.True(t, snapshots[0].HasNextChunk)
	assert.Equal(t, 1, snapshots[0].Stats.N)

	assert.Len(t, fetcher.calls, 3, "MAL users are skipped")
}

func TestRefreshAllReportsFailures(t *testing.T) {
	db := newTestDatabase(t)
	fetcher := &fakeFetcher{docs: map[string]*anilist.MediaListCollection{"taiga": sampleDocument()}}
	ctrl := NewRefreshController(db, newTestWrappedController(fetcher), 5, newTestLogger())

	_, err := db.CreateUser(models.ProviderAnilist, "ghost")
	require.NoError(t, err)
	taiga, err := db.CreateUser(models.ProviderAnilist, "taiga")
	require.NoError(t, err)

	err = ctrl.RefreshAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")

	snapshots, err := db.GetSnapshotsByUserID(taiga.ID)
	require.NoError(t, err)
	assert.Len(t, snapshots, 1, "a failing user does not block the others")
}
