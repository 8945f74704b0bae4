package stats

import (
	"sort"
	"strconv"
)

// scoredThreshold is the share of completed titles that must carry a score
// before score-based statistics are considered meaningful
const scoredThreshold = 0.5

// statusCounts buckets records by status. Statuses outside the three known
// buckets are returned in unexpected and counted nowhere else.
func statusCounts(records []Record) (completed, ongoing, dropped int, unexpected map[string]int) {
	unexpected = make(map[string]int)
	for i := range records {
		switch records[i].Status {
		case StatusCompleted:
			completed++
		case StatusCurrent:
			ongoing++
		case StatusDropped:
			dropped++
		default:
			unexpected[records[i].Status]++
		}
	}
	return completed, ongoing, dropped, unexpected
}

// episodesWatched sums episodes over completed titles; unknown counts add 0
func episodesWatched(records []Record) int {
	total := 0
	for i := range records {
		if records[i].Completed() && records[i].Episodes != nil {
			total += *records[i].Episodes
		}
	}
	return total
}

// scoresValid reports whether at least half of the completed titles are
// scored. With no completed titles there is no evidence against the scores.
func scoresValid(records []Record) bool {
	completed, scored := 0, 0
	for i := range records {
		if !records[i].Completed() {
			continue
		}
		completed++
		if records[i].Scored() {
			scored++
		}
	}
	if completed == 0 {
		return true
	}
	return float64(scored)/float64(completed) >= scoredThreshold
}

// averageScore is the mean score of completed, scored titles. ok is false
// when no title qualifies.
func averageScore(records []Record) (avg float64, ok bool) {
	sum, n := 0.0, 0
	for i := range records {
		if records[i].Completed() && records[i].Scored() {
			sum += *records[i].Score
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// completedBounds finds the earliest and latest completion within year.
// On equal dates the record seen first wins.
func completedBounds(records []Record, year int) (first, last *MediaAndDate) {
	var lo, hi *Record
	for i := range records {
		r := &records[i]
		if r.CompletedAt == nil || r.CompletedAt.Year() != year {
			continue
		}
		if lo == nil || r.CompletedAt.Before(*lo.CompletedAt) {
			lo = r
		}
		if hi == nil || r.CompletedAt.After(*hi.CompletedAt) {
			hi = r
		}
	}
	if lo == nil {
		return nil, nil
	}
	return mediaAndDate(lo), mediaAndDate(hi)
}

func mediaAndDate(r *Record) *MediaAndDate {
	return &MediaAndDate{
		MediaID:     r.MediaID,
		Title:       r.Title,
		CompletedAt: Date{*r.CompletedAt},
	}
}

// genreCounts counts every (record, genre) pair, most frequent first.
// Equal counts are ordered by genre name.
func genreCounts(records []Record) []GroupCount {
	counts := make(map[string]int)
	for i := range records {
		for _, genre := range records[i].Genres {
			counts[genre]++
		}
	}

	result := toGroupCounts(counts)
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Group < result[j].Group
	})
	return result
}

// decadeCounts groups by release decade, oldest first. Records without a
// season year are left out.
func decadeCounts(records []Record) []GroupCount {
	counts := make(map[int]int)
	for i := range records {
		if records[i].SeasonYear == nil {
			continue
		}
		counts[*records[i].SeasonYear/10*10]++
	}

	decades := make([]int, 0, len(counts))
	for decade := range counts {
		decades = append(decades, decade)
	}
	sort.Ints(decades)

	result := make([]GroupCount, 0, len(decades))
	for _, decade := range decades {
		result = append(result, GroupCount{Group: strconv.Itoa(decade), Count: counts[decade]})
	}
	return result
}

// formatCounts groups by format, least frequent first. Equal counts are
// ordered by format name.
func formatCounts(records []Record) []GroupCount {
	counts := make(map[string]int)
	for i := range records {
		counts[records[i].FormatLabel()]++
	}

	result := toGroupCounts(counts)
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count < result[j].Count
		}
		return result[i].Group < result[j].Group
	})
	return result
}

func toGroupCounts(counts map[string]int) []GroupCount {
	result := make([]GroupCount, 0, len(counts))
	for group, count := range counts {
		result = append(result, GroupCount{Group: group, Count: count})
	}
	return result
}

// signatureGenre ranks genres over scored titles by count × mean score.
// Ties go to the larger count, then to the genre name.
func signatureGenre(records []Record) *SignatureGenre {
	type tally struct {
		count int
		sum   float64
	}
	tallies := make(map[string]*tally)
	for i := range records {
		if !records[i].Scored() {
			continue
		}
		for _, genre := range records[i].Genres {
			t, ok := tallies[genre]
			if !ok {
				t = &tally{}
				tallies[genre] = t
			}
			t.count++
			t.sum += *records[i].Score
		}
	}

	var best *SignatureGenre
	bestWeight := 0.0
	for genre, t := range tallies {
		avg := t.sum / float64(t.count)
		weight := float64(t.count) * avg
		candidate := &SignatureGenre{Name: genre, AnimeCount: t.count, AvgScore: avg}
		if best == nil || outranks(weight, candidate, bestWeight, best) {
			best, bestWeight = candidate, weight
		}
	}
	return best
}

func outranks(weight float64, g *SignatureGenre, bestWeight float64, best *SignatureGenre) bool {
	if weight != bestWeight {
		return weight > bestWeight
	}
	if g.AnimeCount != best.AnimeCount {
		return g.AnimeCount > best.AnimeCount
	}
	return g.Name < best.Name
}

// catalogue maps media ids to their metadata; the first record of a title wins
func catalogue(records []Record) map[int]AnimeData {
	anime := make(map[int]AnimeData, len(records))
	for i := range records {
		r := &records[i]
		if _, seen := anime[r.MediaID]; seen {
			continue
		}
		anime[r.MediaID] = AnimeData{
			MediaID:      r.MediaID,
			Title:        r.Title,
			BannerURL:    r.BannerURL,
			CoverURL:     r.CoverURL,
			Description:  r.Description,
			AverageScore: r.AverageScore,
			MeanScore:    r.MeanScore,
			Episodes:     r.Episodes,
			Genres:       r.Genres,
			Season:       r.Season,
			SeasonYear:   r.SeasonYear,
			SiteURL:      r.SiteURL,
			IsAdult:      r.IsAdult,
			IsFavourite:  r.IsFavourite,
			Type:         r.Type,
			Format:       r.Format,
		}
	}
	return anime
}
