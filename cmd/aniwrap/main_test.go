package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/amaumene/aniwrap/internal/controllers"
	"github.com/amaumene/aniwrap/internal/models"
	"github.com/amaumene/aniwrap/internal/services/anilist"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestUserCommands(t *testing.T) {
	t.Setenv("ANIWRAP_CONFIG_DIR", t.TempDir())

	out, err := execute(t, "user", "add", "anilist", "Kaori")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered anilist user Kaori")

	_, err = execute(t, "user", "add", "anilist", "kaori")
	assert.ErrorIs(t, err, models.ErrUserExists)

	_, err = execute(t, "user", "add", "kitsu", "kaori")
	assert.Error(t, err)

	out, err = execute(t, "user", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, lines[1], "Kaori")
	assert.Contains(t, lines[1], "never")

	id := strings.Fields(lines[1])[0]
	out, err = execute(t, "user", "remove", id)
	require.NoError(t, err)
	assert.Contains(t, out, id)

	_, err = execute(t, "user", "remove", id)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestWrappedRequiresUsername(t *testing.T) {
	_, err := execute(t, "wrapped")
	assert.Error(t, err)
}

type staticFetcher struct {
	doc *anilist.MediaListCollection
}

func (f staticFetcher) GetWatchHistory(context.Context, string, time.Time, time.Time) (*anilist.MediaListCollection, error) {
	return f.doc, nil
}

func TestPrintWrapped(t *testing.T) {
	episodes := 22
	doc := &anilist.MediaListCollection{Lists: []anilist.MediaListGroup{{
		Name:   "Dropped",
		Status: "DROPPED",
		Entries: []anilist.MediaList{{
			MediaID: 20954,
			Media: &anilist.Media{
				Episodes: &episodes,
				Genres:   []string{"Drama", "Music"},
				Type:     "ANIME",
				Title:    &anilist.MediaTitle{UserPreferred: "Shigatsu wa Kimi no Uso"},
			},
		}},
	}}}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	ctrl := controllers.NewWrappedController(staticFetcher{doc: doc}, logger)

	var out bytes.Buffer
	require.NoError(t, printWrapped(context.Background(), &out, ctrl, models.ProviderAnilist, "kaori", 0, false))

	var result map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.EqualValues(t, 1, result["n"])
	assert.EqualValues(t, 1, result["n_dropped"])

	out.Reset()
	require.NoError(t, printWrapped(context.Background(), &out, ctrl, models.ProviderAnilist, "kaori", 0, true))
	assert.Contains(t, out.String(), `"mediaId": 20954`)

	err := printWrapped(context.Background(), &out, ctrl, models.ProviderMAL, "kaori", 0, false)
	assert.ErrorIs(t, err, controllers.ErrProviderNotSupported)
}
