package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"tunecrate/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSong(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "A", "a@x.com", "secret1")

	urls := []string{
		"https://youtu.be/abc12345678",
		"https://www.youtube.com/watch?v=abc12345678",
		"https://www.youtube.com/shorts/abc12345678",
	}

	for _, url := range urls {
		rec := env.request(t, http.MethodPost, "/songs", token, map[string]string{"youtubeUrl": url})
		require.Equal(t, http.StatusCreated, rec.Code, url)

		var song model.Song
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &song))
		assert.Equal(t, "Test Song", song.Title)
		assert.Equal(t, "Test Artist", song.Artist)
		assert.Equal(t, "abc12345678", song.YoutubeID)
		assert.Equal(t, "https://img.example/t.jpg", song.Thumbnail)
		assert.Equal(t, "192", song.Duration)
		assert.NotEmpty(t, song.ID)
	}
}

func TestCreateSongFailures(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "A", "a@x.com", "secret1")

	t.Run("missing url", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/songs", token, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed url", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/songs", token, map[string]string{
			"youtubeUrl": "https://vimeo.com/12345",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid YouTube URL")
	})

	t.Run("metadata lookup failure surfaces details", func(t *testing.T) {
		env.metadata.err = errors.New("youtube api returned status 403: quota exceeded")
		defer func() { env.metadata.err = nil }()

		rec := env.request(t, http.MethodPost, "/songs", token, map[string]string{
			"youtubeUrl": "https://youtu.be/abc12345678",
		})
		assert.Equal(t, http.StatusBadGateway, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Failed to fetch video information", body["error"])
		assert.Contains(t, body["details"], "quota exceeded")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/songs", "", map[string]string{
			"youtubeUrl": "https://youtu.be/abc12345678",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestListSongsOrder(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "A", "a@x.com", "secret1")

	first := env.createSong(t, token)
	second := env.createSong(t, token)

	rec := env.request(t, http.MethodGet, "/songs", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var songs []model.Song
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &songs))
	require.Len(t, songs, 2)
	// Most recently created first.
	assert.Equal(t, second.ID, songs[0].ID)
	assert.Equal(t, first.ID, songs[1].ID)
}

func TestGetSongOwnership(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.registerUser(t, "A", "a@x.com", "secret1")
	_, otherToken := env.registerUser(t, "B", "b@x.com", "secret2")

	song := env.createSong(t, ownerToken)

	t.Run("owner reads it", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/songs/"+song.ID, ownerToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("non-owner gets forbidden", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/songs/"+song.ID, otherToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/songs/nope", ownerToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPartialUpdateSong(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "A", "a@x.com", "secret1")
	song := env.createSong(t, token)

	// Rate it first so we can prove the next patch leaves it alone.
	rec := env.request(t, http.MethodPatch, "/songs/"+song.ID, token, map[string]interface{}{"rating": 4})
	require.Equal(t, http.StatusOK, rec.Code)

	// Patch only isLiked; title, artist and rating must keep their values.
	rec = env.request(t, http.MethodPatch, "/songs/"+song.ID, token, map[string]interface{}{"isLiked": true})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated model.Song
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.True(t, updated.IsLiked)
	assert.Equal(t, 4, updated.Rating)
	assert.Equal(t, song.Title, updated.Title)
	assert.Equal(t, song.Artist, updated.Artist)
}

func TestUpdateSongOwnership(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.registerUser(t, "A", "a@x.com", "secret1")
	_, otherToken := env.registerUser(t, "B", "b@x.com", "secret2")
	song := env.createSong(t, ownerToken)

	rec := env.request(t, http.MethodPatch, "/songs/"+song.ID, otherToken, map[string]interface{}{"isLiked": true})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.request(t, http.MethodPatch, "/songs/missing", ownerToken, map[string]interface{}{"isLiked": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSong(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.registerUser(t, "A", "a@x.com", "secret1")
	_, otherToken := env.registerUser(t, "B", "b@x.com", "sec2")
	song := env.createSong(t, ownerToken)

	rec := env.request(t, http.MethodDelete, "/songs/"+song.ID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.request(t, http.MethodDelete, "/songs/"+song.ID, ownerToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.request(t, http.MethodGet, "/songs/"+song.ID, ownerToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// createSong catalogs the canned test video and returns the created song.
func (e *testEnv) createSong(t *testing.T, token string) *model.Song {
	t.Helper()

	rec := e.request(t, http.MethodPost, "/songs", token, map[string]string{
		"youtubeUrl": "https://youtu.be/abc12345678",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var song model.Song
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &song))
	return &song
}
