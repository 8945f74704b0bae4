package stats

import (
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/aniwrap/internal/services/anilist"
)

// ErrMalformedDocument is returned when a watch history lacks the fields
// needed to build records
var ErrMalformedDocument = errors.New("malformed watch history")

// Flatten produces one Record per entry, lists in document order and
// entries in list order. An empty document yields an empty slice.
func Flatten(doc *anilist.MediaListCollection) ([]Record, error) {
	if doc == nil {
		return []Record{}, nil
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	total := 0
	for _, list := range doc.Lists {
		total += len(list.Entries)
	}

	records := make([]Record, 0, total)
	for li, list := range doc.Lists {
		for ei, entry := range list.Entries {
			record, err := flattenEntry(list, entry)
			if err != nil {
				return nil, fmt.Errorf("%w: list %d (%s) entry %d: %v", ErrMalformedDocument, li, list.Name, ei, err)
			}
			records = append(records, record)
		}
	}

	return records, nil
}

func flattenEntry(list anilist.MediaListGroup, entry anilist.MediaList) (Record, error) {
	startedAt, err := resolveDate(entry.StartedAt)
	if err != nil {
		return Record{}, fmt.Errorf("startedAt: %w", err)
	}
	completedAt, err := resolveDate(entry.CompletedAt)
	if err != nil {
		return Record{}, fmt.Errorf("completedAt: %w", err)
	}

	// The entry status is authoritative; the list status only fills a gap.
	status := entry.Status
	if status == "" {
		status = list.Status
	}

	media := entry.Media
	record := Record{
		ListName:   list.Name,
		ListStatus: list.Status,

		MediaID:     entry.MediaID,
		Private:     entry.Private,
		Score:       copyFloat(entry.Score),
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Status:      status,
		Notes:       deref(entry.Notes),
		Repeat:      entry.Repeat,
		UpdatedAt:   time.Unix(entry.UpdatedAt, 0).UTC(),

		BannerURL:    deref(media.BannerImage),
		Description:  deref(media.Description),
		AverageScore: copyInt(media.AverageScore),
		MeanScore:    copyInt(media.MeanScore),
		Episodes:     copyInt(media.Episodes),
		Genres:       append([]string(nil), media.Genres...),
		IsAdult:      media.IsAdult,
		IsFavourite:  media.IsFavourite,
		Season:       deref(media.Season),
		SeasonYear:   copyInt(media.SeasonYear),
		SiteURL:      media.SiteURL,
		Type:         media.Type,
		Format:       deref(media.Format),
	}
	if media.Title != nil {
		record.Title = media.Title.UserPreferred
	}
	if media.CoverImage != nil {
		record.CoverURL = media.CoverImage.Medium
	}

	return record, nil
}

// resolveDate returns nil for incomplete dates and an error for complete
// ones that are not on the calendar
func resolveDate(d anilist.FuzzyDate) (*time.Time, error) {
	if !d.Complete() {
		return nil, nil
	}
	year, month, day := *d.Year, *d.Month, *d.Day
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return nil, fmt.Errorf("invalid date %04d-%02d-%02d", year, month, day)
	}
	return &t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
