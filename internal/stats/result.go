package stats

import (
	"encoding/json"
	"time"
)

// Date is a calendar date serialised as YYYY-MM-DD
type Date struct {
	time.Time
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(time.DateOnly))
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// GroupCount is one bucket of a histogram (genre, decade, format, ...)
type GroupCount struct {
	Group string `json:"group"`
	Count int    `json:"count"`
}

// SignatureGenre is the genre with the best count × average score
type SignatureGenre struct {
	Name       string  `json:"name"`
	AnimeCount int     `json:"anime_count"`
	AvgScore   float64 `json:"avg_score"`
}

// MediaAndDate points at a title and the day it was completed
type MediaAndDate struct {
	MediaID     int    `json:"media_id"`
	Title       string `json:"title"`
	CompletedAt Date   `json:"completed_at"`
}

// AnimeData is the descriptive metadata of one title
type AnimeData struct {
	MediaID      int      `json:"media_id"`
	Title        string   `json:"title"`
	BannerURL    string   `json:"banner_url"`
	CoverURL     string   `json:"cover_url"`
	Description  string   `json:"description"`
	AverageScore *int     `json:"average_score"`
	MeanScore    *int     `json:"mean_score"`
	Episodes     *int     `json:"episodes"`
	Genres       []string `json:"genres"`
	Season       string   `json:"season"`
	SeasonYear   *int     `json:"season_year"`
	SiteURL      string   `json:"site_url"`
	IsAdult      bool     `json:"is_adult"`
	IsFavourite  bool     `json:"is_favourite"`
	Type         string   `json:"type"`
	Format       string   `json:"format"`
}

// Result is the wrapped summary of a watch history
type Result struct {
	N              int             `json:"n"`
	NCompleted     int             `json:"n_completed"`
	NOngoing       int             `json:"n_ongoing"`
	NDropped       int             `json:"n_dropped"`
	NEpisodes      int             `json:"n_episodes"`
	AvgScore       float64         `json:"avg_score"`
	ScoresValid    bool            `json:"scores_valid"`
	FirstCompleted *MediaAndDate   `json:"first_completed"`
	LastCompleted  *MediaAndDate   `json:"last_completed"`
	GenreCounts    []GroupCount    `json:"genre_counts"`
	DecadeCounts   []GroupCount    `json:"decade_counts"`
	FormatCounts   []GroupCount    `json:"format_counts"`
	SignatureGenre *SignatureGenre `json:"signature_genre"`

	Anime map[int]AnimeData `json:"anime"`
}
