package anilist

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/amaumene/aniwrap/internal/metrics"
	"github.com/sirupsen/logrus"
)

const mediaListCollectionQuery = `query WatchHistory(
  $userName: String
  $type: MediaType
  $sort: [MediaListSort]
  $completedAtLesser: FuzzyDateInt
  $startedAtGreater: FuzzyDateInt
) {
  MediaListCollection(
    userName: $userName
    type: $type
    sort: $sort
    completedAt_lesser: $completedAtLesser
    startedAt_greater: $startedAtGreater
  ) {
    lists {
      name
      status
      entries {
        mediaId
        private
        score
        startedAt { year month day }
        completedAt { year month day }
        status
        notes
        repeat
        updatedAt
        media {
          averageScore
          bannerImage
          coverImage { medium }
          description
          episodes
          genres
          isAdult
          isFavourite
          meanScore
          season
          seasonYear
          type
          format
          siteUrl
          title { userPreferred }
        }
      }
    }
    hasNextChunk
  }
}`

// DefaultWindow returns the fetch window used when the caller gives none:
// from the last day of the previous year to the first day of the next one
func DefaultWindow(now time.Time) (lo, hi time.Time) {
	lo = time.Date(now.Year()-1, time.December, 31, 0, 0, 0, 0, time.UTC)
	hi = time.Date(now.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	return lo, hi
}

// fuzzyDateInt encodes a date as AniList's YYYYMMDD integer
func fuzzyDateInt(t time.Time) int {
	v, _ := strconv.Atoi(t.Format("20060102"))
	return v
}

// GetWatchHistory fetches one chunk of the user's anime list, restricted to
// entries started after lo and completed before hi. Zero bounds fall back
// to DefaultWindow.
func (c *Client) GetWatchHistory(ctx context.Context, username string, lo, hi time.Time) (*MediaListCollection, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	defLo, defHi := DefaultWindow(time.Now())
	if lo.IsZero() {
		lo = defLo
	}
	if hi.IsZero() {
		hi = defHi
	}

	variables := map[string]any{
		"userName":          username,
		"type":              "ANIME",
		"sort":              "FINISHED_ON",
		"startedAtGreater":  fuzzyDateInt(lo),
		"completedAtLesser": fuzzyDateInt(hi),
	}

	c.logger.WithFields(logrus.Fields{
		"username": username,
		"from":     variables["startedAtGreater"],
		"to":       variables["completedAtLesser"],
	}).Info("Fetching AniList watch history")

	var data struct {
		MediaListCollection *MediaListCollection `json:"MediaListCollection"`
	}
	if err := c.doQuery(ctx, mediaListCollectionQuery, variables, &data); err != nil {
		return nil, fmt.Errorf("failed to get watch history: %w", err)
	}
	if data.MediaListCollection == nil {
		return nil, fmt.Errorf("failed to get watch history: empty MediaListCollection")
	}

	collection := data.MediaListCollection
	c.logger.WithFields(logrus.Fields{
		"username": username,
		"lists":    len(collection.Lists),
	}).Info("Fetched AniList watch history")

	if collection.HasNextChunk {
		metrics.TruncatedHistoriesTotal.Inc()
		c.logger.WithField("username", username).
			Warn("AniList has more data for this user, but only the first chunk was fetched")
	}

	return collection, nil
}
