package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedOn(y, m, d int) *time.Time {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestStatusCounts(t *testing.T) {
	records := []Record{
		{Status: StatusCompleted},
		{Status: StatusCompleted},
		{Status: StatusCurrent},
		{Status: StatusDropped},
		{Status: "PLANNING"},
		{Status: "PAUSED"},
		{Status: "PAUSED"},
	}

	completed, ongoing, dropped, unexpected := statusCounts(records)
	assert.Equal(t, 2, completed)
	assert.Equal(t, 1, ongoing)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, map[string]int{"PLANNING": 1, "PAUSED": 2}, unexpected)
}

func TestEpisodesWatched(t *testing.T) {
	records := []Record{
		{Status: StatusCompleted, Episodes: intPtr(12)},
		{Status: StatusCompleted, Episodes: nil},
		{Status: StatusCompleted, Episodes: intPtr(1)},
		{Status: StatusCurrent, Episodes: intPtr(500)},
	}
	assert.Equal(t, 13, episodesWatched(records))
	assert.Equal(t, 0, episodesWatched([]Record{{Status: StatusCurrent, Episodes: intPtr(3)}}))
	assert.Equal(t, 0, episodesWatched(nil))
}

func TestScoresValid(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		want    bool
	}{
		{"no completed titles", []Record{{Status: StatusCurrent}}, true},
		{"half scored", []Record{
			{Status: StatusCompleted, Score: floatPtr(7)},
			{Status: StatusCompleted, Score: floatPtr(0)},
		}, true},
		{"less than half scored", []Record{
			{Status: StatusCompleted, Score: floatPtr(7)},
			{Status: StatusCompleted, Score: floatPtr(0)},
			{Status: StatusCompleted, Score: nil},
		}, false},
		{"scores on other statuses ignored", []Record{
			{Status: StatusCompleted, Score: nil},
			{Status: StatusCurrent, Score: floatPtr(10)},
			{Status: StatusDropped, Score: floatPtr(2)},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scoresValid(tt.records))
		})
	}
}

func TestAverageScore(t *testing.T) {
	avg, ok := averageScore([]Record{
		{Status: StatusCompleted, Score: floatPtr(9)},
		{Status: StatusCompleted, Score: floatPtr(6)},
		{Status: StatusCompleted, Score: floatPtr(0)},
		{Status: StatusCompleted, Score: nil},
		{Status: StatusDropped, Score: floatPtr(1)},
	})
	assert.True(t, ok)
	assert.InDelta(t, 7.5, avg, 1e-9)

	avg, ok = averageScore([]Record{{Status: StatusCompleted, Score: floatPtr(0)}})
	assert.False(t, ok)
	assert.Equal(t, 0.0, avg)
}

func TestCompletedBounds(t *testing.T) {
	records := []Record{
		{MediaID: 1, CompletedAt: completedOn(2025, 12, 31)},
		{MediaID: 2, CompletedAt: completedOn(2026, 3, 1)},
		{MediaID: 3, CompletedAt: completedOn(2026, 1, 15)},
		{MediaID: 4, CompletedAt: nil},
		{MediaID: 5, CompletedAt: completedOn(2026, 11, 2)},
		{MediaID: 6, CompletedAt: completedOn(2026, 11, 2)},
		{MediaID: 7, CompletedAt: completedOn(2027, 1, 1)},
	}

	first, last := completedBounds(records, 2026)
	require.NotNil(t, first)
	require.NotNil(t, last)
	assert.Equal(t, 3, first.MediaID)
	assert.Equal(t, "2026-01-15", first.CompletedAt.Format(time.DateOnly))
	assert.Equal(t, 5, last.MediaID, "first record wins on equal dates")

	first, last = completedBounds(records, 2024)
	assert.Nil(t, first)
	assert.Nil(t, last)
}

func TestGenreCounts(t *testing.T) {
	records := []Record{
		{Genres: []string{"Action", "Drama"}},
		{Genres: []string{"Drama"}},
		{Genres: []string{"Comedy", "Action", "Romance"}},
		{Genres: nil},
	}

	assert.Equal(t, []GroupCount{
		{Group: "Action", Count: 2},
		{Group: "Drama", Count: 2},
		{Group: "Comedy", Count: 1},
		{Group: "Romance", Count: 1},
	}, genreCounts(records))

	assert.Empty(t, genreCounts(nil))
}

func TestDecadeCounts(t *testing.T) {
	records := []Record{
		{SeasonYear: intPtr(2024)},
		{SeasonYear: intPtr(1999)},
		{SeasonYear: intPtr(2020)},
		{SeasonYear: nil},
		{SeasonYear: intPtr(1990)},
		{SeasonYear: intPtr(2009)},
	}

	assert.Equal(t, []GroupCount{
		{Group: "1990", Count: 2},
		{Group: "2000", Count: 1},
		{Group: "2020", Count: 2},
	}, decadeCounts(records))
}

func TestFormatCounts(t *testing.T) {
	records := []Record{
		{Type: "ANIME", Format: "TV"},
		{Type: "ANIME", Format: "TV"},
		{Type: "ANIME", Format: "TV"},
		{Type: "ANIME", Format: "MOVIE"},
		{Type: "ANIME", Format: "OVA"},
		{Type: "ANIME", Format: "OVA"},
		{Type: "ANIME"},
	}

	assert.Equal(t, []GroupCount{
		{Group: "ANIME", Count: 1},
		{Group: "MOVIE", Count: 1},
		{Group: "OVA", Count: 2},
		{Group: "TV", Count: 3},
	}, formatCounts(records))
}

func TestSignatureGenreWeightsByScore(t *testing.T) {
	// Slice of Life appears more often, but Mystery's scores outweigh it:
	// Mystery 2 × 10 = 20, Slice of Life 3 × 5 = 15.
	records := []Record{
		{Score: floatPtr(10), Genres: []string{"Mystery"}},
		{Score: floatPtr(10), Genres: []string{"Mystery"}},
		{Score: floatPtr(5), Genres: []string{"Slice of Life"}},
		{Score: floatPtr(5), Genres: []string{"Slice of Life"}},
		{Score: floatPtr(5), Genres: []string{"Slice of Life"}},
		{Score: floatPtr(0), Genres: []string{"Slice of Life"}},
		{Score: nil, Genres: []string{"Slice of Life"}},
	}

	got := signatureGenre(records)
	require.NotNil(t, got)
	assert.Equal(t, "Mystery", got.Name)
	assert.Equal(t, 2, got.AnimeCount)
	assert.InDelta(t, 10.0, got.AvgScore, 1e-9)
}

func TestSignatureGenreTieBreak(t *testing.T) {
	// Both weigh 12; Comedy has more entries. Drama and Horror tie completely.
	got := signatureGenre([]Record{
		{Score: floatPtr(4), Genres: []string{"Comedy"}},
		{Score: floatPtr(4), Genres: []string{"Comedy"}},
		{Score: floatPtr(4), Genres: []string{"Comedy"}},
		{Score: floatPtr(12), Genres: []string{"Action"}},
	})
	require.NotNil(t, got)
	assert.Equal(t, "Comedy", got.Name)

	got = signatureGenre([]Record{
		{Score: floatPtr(7), Genres: []string{"Horror", "Drama"}},
	})
	require.NotNil(t, got)
	assert.Equal(t, "Drama", got.Name)
}

func TestSignatureGenreAbsent(t *testing.T) {
	assert.Nil(t, signatureGenre(nil))
	assert.Nil(t, signatureGenre([]Record{
		{Score: floatPtr(0), Genres: []string{"Action"}},
		{Score: floatPtr(8)},
	}))
}

func TestCatalogueDeduplicates(t *testing.T) {
	records := []Record{
		{MediaID: 1, Title: "Bebop", Repeat: 0},
		{MediaID: 2, Title: "Trigun"},
		{MediaID: 1, Title: "Bebop (rewatch)", Repeat: 1},
	}

	anime := catalogue(records)
	require.Len(t, anime, 2)
	assert.Equal(t, "Bebop", anime[1].Title)
	assert.Equal(t, 1, anime[1].MediaID)
	assert.Equal(t, "Trigun", anime[2].Title)
}
