package stats

import (
	"fmt"
	"time"

	"github.com/amaumene/aniwrap/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Calculator computes a Result from flattened records
type Calculator struct {
	// Now supplies the clock for "current year" lookups
	Now    func() time.Time
	logger *logrus.Logger
}

// NewCalculator creates a calculator using the wall clock
func NewCalculator(logger *logrus.Logger) *Calculator {
	return &Calculator{
		Now:    time.Now,
		logger: logger,
	}
}

// Calculate runs every aggregate over records. An aggregate that fails is
// logged and left at its zero value; the others still run.
func (c *Calculator) Calculate(records []Record) *Result {
	result := &Result{
		ScoresValid:  true,
		GenreCounts:  []GroupCount{},
		DecadeCounts: []GroupCount{},
		FormatCounts: []GroupCount{},
		Anime:        map[int]AnimeData{},
	}

	result.N = len(records)

	c.guard("status_counts", func() {
		completed, ongoing, dropped, unexpected := statusCounts(records)
		for status, count := range unexpected {
			c.logger.WithFields(logrus.Fields{
				"status": status,
				"count":  count,
			}).Warn("Unexpected status while counting totals")
		}
		result.NCompleted, result.NOngoing, result.NDropped = completed, ongoing, dropped
	})

	c.guard("episodes", func() {
		result.NEpisodes = episodesWatched(records)
	})

	c.guard("scores_valid", func() {
		result.ScoresValid = scoresValid(records)
	})

	c.guard("avg_score", func() {
		avg, ok := averageScore(records)
		if !ok {
			c.logger.Warn("No completed titles with a score; average score defaults to 0")
		}
		result.AvgScore = avg
	})

	c.guard("completed_bounds", func() {
		year := c.Now().Year()
		first, last := completedBounds(records, year)
		if first == nil {
			c.logger.WithField("year", year).Warn("No titles completed this year")
		}
		result.FirstCompleted, result.LastCompleted = first, last
	})

	c.guard("genre_counts", func() {
		result.GenreCounts = genreCounts(records)
	})

	c.guard("decade_counts", func() {
		result.DecadeCounts = decadeCounts(records)
	})

	c.guard("format_counts", func() {
		result.FormatCounts = formatCounts(records)
	})

	c.guard("signature_genre", func() {
		result.SignatureGenre = signatureGenre(records)
		if result.SignatureGenre == nil {
			c.logger.Warn("No scored titles with genres; no signature genre")
		}
	})

	c.guard("anime", func() {
		result.Anime = catalogue(records)
	})

	return result
}

// guard runs one aggregate, turning a panic into a logged fallback
func (c *Calculator) guard(computation string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			metrics.AggregateFallbacksTotal.WithLabelValues(computation).Inc()
			c.logger.WithFields(logrus.Fields{
				"computation": computation,
				"panic":       fmt.Sprint(r),
			}).Error("Aggregate failed; using its default")
		}
	}()
	fn()
}
