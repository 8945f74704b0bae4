package anilist

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// MediaListCollection is the watch-history document returned by the
// MediaListCollection query. Field names mirror the AniList schema.
type MediaListCollection struct {
	Lists        []MediaListGroup `json:"lists" validate:"dive"`
	HasNextChunk bool             `json:"hasNextChunk"`
}

// MediaListGroup is one status bucket ("Watching", "Completed", ...)
type MediaListGroup struct {
	Name    string      `json:"name"`
	Status  string      `json:"status"`
	Entries []MediaList `json:"entries" validate:"dive"`
}

// MediaList is a single entry of a user's list
type MediaList struct {
	MediaID     int       `json:"mediaId" validate:"required"`
	Private     bool      `json:"private"`
	Score       *float64  `json:"score"` // 0 or null when the user did not rate it
	StartedAt   FuzzyDate `json:"startedAt"`
	CompletedAt FuzzyDate `json:"completedAt"`
	Status      string    `json:"status"`
	Notes       *string   `json:"notes"`
	Repeat      int       `json:"repeat"`
	UpdatedAt   int64     `json:"updatedAt"` // unix seconds
	Media       *Media    `json:"media" validate:"required"`
}

// FuzzyDate is an AniList date where any component may be missing
type FuzzyDate struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
	Day   *int `json:"day"`
}

// Complete reports whether year, month and day are all set
func (d FuzzyDate) Complete() bool {
	return d.Year != nil && d.Month != nil && d.Day != nil
}

// Media holds the descriptive metadata of a title
type Media struct {
	AverageScore *int        `json:"averageScore"`
	MeanScore    *int        `json:"meanScore"`
	BannerImage  *string     `json:"bannerImage"`
	CoverImage   *CoverImage `json:"coverImage"`
	Description  *string     `json:"description"`
	Episodes     *int        `json:"episodes"` // nil while a show is still airing
	Genres       []string    `json:"genres"`
	IsAdult      bool        `json:"isAdult"`
	IsFavourite  bool        `json:"isFavourite"`
	Season       *string     `json:"season"`
	SeasonYear   *int        `json:"seasonYear"`
	SiteURL      string      `json:"siteUrl"`
	Title        *MediaTitle `json:"title"`
	Type         string      `json:"type" validate:"required,oneof=ANIME MANGA"`
	Format       *string     `json:"format"`
}

// CoverImage only carries the size we render
type CoverImage struct {
	Medium string `json:"medium"`
}

// MediaTitle carries the title in the user's preferred language
type MediaTitle struct {
	UserPreferred string `json:"userPreferred"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func documentValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the fields the statistics cannot do without
func (c *MediaListCollection) Validate() error {
	if err := documentValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid watch history: %w", err)
	}
	return nil
}
