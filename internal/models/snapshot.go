package models

import (
	"time"

	"github.com/amaumene/aniwrap/internal/stats"
)

// Snapshot is a wrapped computed for a registered user at a point in time
type Snapshot struct {
	ID     uint64 `json:"id" boltholdKey:"ID"`
	UserID string `json:"user_id" boltholdIndex:"UserID"`

	Year         int          `json:"year"`      // calendar year the statistics describe
	HasNextChunk bool         `json:"truncated"` // the watch history was truncated upstream
	Stats        stats.Result `json:"stats"`

	CreatedAt time.Time `json:"created_at"`
}

// restoreEmpty undoes gob dropping empty collections, so stored snapshots
// serialise the same way as freshly computed ones
func (s *Snapshot) restoreEmpty() {
	if s.Stats.GenreCounts == nil {
		s.Stats.GenreCounts = []stats.GroupCount{}
	}
	if s.Stats.DecadeCounts == nil {
		s.Stats.DecadeCounts = []stats.GroupCount{}
	}
	if s.Stats.FormatCounts == nil {
		s.Stats.FormatCounts = []stats.GroupCount{}
	}
	if s.Stats.Anime == nil {
		s.Stats.Anime = map[int]stats.AnimeData{}
	}
}
