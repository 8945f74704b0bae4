// Package stats turns a watch-history document into a year-in-review summary.
//
// Flatten merges every list entry with its media into a Record; a
// Calculator then runs a fixed set of aggregates over those records. Both
// steps are pure: nothing is cached and no state survives a call, so any
// number of goroutines may compute statistics concurrently.
package stats

import (
	"time"
)

// Media list statuses used by the aggregates
const (
	StatusCompleted = "COMPLETED"
	StatusCurrent   = "CURRENT"
	StatusDropped   = "DROPPED"
)

// Record is one list entry merged with its media and enclosing list
type Record struct {
	// List context
	ListName   string
	ListStatus string

	// Entry
	MediaID     int
	Private     bool
	Score       *float64
	StartedAt   *time.Time // nil when any date component is unknown
	CompletedAt *time.Time
	Status      string
	Notes       string
	Repeat      int
	UpdatedAt   time.Time

	// Media
	Title        string
	BannerURL    string
	CoverURL     string
	Description  string
	AverageScore *int
	MeanScore    *int
	Episodes     *int
	Genres       []string
	IsAdult      bool
	IsFavourite  bool
	Season       string
	SeasonYear   *int
	SiteURL      string
	Type         string
	Format       string
}

// Scored reports whether the user rated the title. A zero score is how
// providers encode "not rated".
func (r *Record) Scored() bool {
	return r.Score != nil && *r.Score != 0
}

// Completed reports whether the entry is in the COMPLETED state
func (r *Record) Completed() bool {
	return r.Status == StatusCompleted
}

// FormatLabel is the format used for grouping, falling back to the media type
func (r *Record) FormatLabel() string {
	if r.Format != "" {
		return r.Format
	}
	return r.Type
}
