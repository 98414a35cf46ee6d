package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"tunecrate/config"
	"tunecrate/core/auth"
	"tunecrate/core/youtube"
	"tunecrate/model"
	"tunecrate/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// clock hands out strictly increasing timestamps so ordering assertions are
// deterministic.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	clk   *clock
	users map[string]*model.User
}

func (r *fakeUserRepo) CreateUser(user *model.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = r.clk.next()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetUserByID(id string) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetUserByEmail(email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// fakeSongRepo is an in-memory repository.SongRepository.
type fakeSongRepo struct {
	clk   *clock
	songs map[string]*model.Song
}

func (r *fakeSongRepo) CreateSong(song *model.Song) error {
	if song.ID == "" {
		song.ID = uuid.NewString()
	}
	song.CreatedAt = r.clk.next()
	cp := *song
	r.songs[song.ID] = &cp
	return nil
}

func (r *fakeSongRepo) SongsByUser(userID string) ([]model.Song, error) {
	var out []model.Song
	for _, s := range r.songs {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	// Most recent first.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *fakeSongRepo) SongByID(id string) (*model.Song, error) {
	s, ok := r.songs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSongRepo) UpdateSong(id string, update *model.SongUpdate) (*model.Song, error) {
	s, ok := r.songs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.Title != nil {
		s.Title = *update.Title
	}
	if update.Artist != nil {
		s.Artist = *update.Artist
	}
	if update.Genre != nil {
		s.Genre = *update.Genre
	}
	if update.Purpose != nil {
		s.Purpose = *update.Purpose
	}
	if update.EmotionalState != nil {
		s.EmotionalState = *update.EmotionalState
	}
	if update.Rating != nil {
		s.Rating = *update.Rating
	}
	if update.IsLiked != nil {
		s.IsLiked = *update.IsLiked
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSongRepo) DeleteSong(id string) error {
	if _, ok := r.songs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.songs, id)
	return nil
}

// fakePlaylistRepo is an in-memory repository.PlaylistRepository.
type fakePlaylistRepo struct {
	clk       *clock
	songRepo  *fakeSongRepo
	playlists map[string]*model.Playlist
	joins     []model.PlaylistSong
}

func (r *fakePlaylistRepo) CreatePlaylist(playlist *model.Playlist) error {
	if playlist.ID == "" {
		playlist.ID = uuid.NewString()
	}
	playlist.CreatedAt = r.clk.next()
	cp := *playlist
	r.playlists[playlist.ID] = &cp
	return nil
}

func (r *fakePlaylistRepo) PlaylistsByUser(userID string) ([]model.Playlist, error) {
	var out []model.Playlist
	for _, p := range r.playlists {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *fakePlaylistRepo) PlaylistByID(id string) (*model.Playlist, error) {
	p, ok := r.playlists[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePlaylistRepo) UpdatePlaylist(id string, name, description *string) (*model.Playlist, error) {
	p, ok := r.playlists[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if name != nil {
		p.Name = *name
	}
	if description != nil {
		p.Description = *description
	}
	cp := *p
	return &cp, nil
}

func (r *fakePlaylistRepo) DeletePlaylist(id string) error {
	if _, ok := r.playlists[id]; !ok {
		return repository.ErrNotFound
	}
	// Join rows first, then the playlist, like the real transaction.
	kept := r.joins[:0]
	for _, j := range r.joins {
		if j.PlaylistID != id {
			kept = append(kept, j)
		}
	}
	r.joins = kept
	delete(r.playlists, id)
	return nil
}

func (r *fakePlaylistRepo) AddSong(playlistID, songID string) error {
	for _, j := range r.joins {
		if j.PlaylistID == playlistID && j.SongID == songID {
			return nil
		}
	}
	r.joins = append(r.joins, model.PlaylistSong{
		ID:         uuid.NewString(),
		PlaylistID: playlistID,
		SongID:     songID,
		CreatedAt:  r.clk.next(),
	})
	return nil
}

func (r *fakePlaylistRepo) RemoveSong(playlistID, songID string) error {
	kept := r.joins[:0]
	removed := false
	for _, j := range r.joins {
		if j.PlaylistID == playlistID && j.SongID == songID {
			removed = true
			continue
		}
		kept = append(kept, j)
	}
	r.joins = kept
	if !removed {
		return repository.ErrNotFound
	}
	return nil
}

func (r *fakePlaylistRepo) SongsInPlaylist(playlistID string) ([]model.Song, error) {
	var out []model.Song
	for _, j := range r.joins { // Joins stay in insertion order.
		if j.PlaylistID != playlistID {
			continue
		}
		if s, ok := r.songRepo.songs[j.SongID]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

// orphanCount reports join rows referencing the given playlist.
func (r *fakePlaylistRepo) orphanCount(playlistID string) int {
	n := 0
	for _, j := range r.joins {
		if j.PlaylistID == playlistID {
			n++
		}
	}
	return n
}

// stubMetadata is a canned youtube.MetadataLookup.
type stubMetadata struct {
	meta map[string]*youtube.VideoMeta
	err  error
}

func (s *stubMetadata) Lookup(ctx context.Context, videoID string) (*youtube.VideoMeta, error) {
	if s.err != nil {
		return nil, s.err
	}
	if m, ok := s.meta[videoID]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("video not found: %s", videoID)
}

// testEnv bundles everything a handler test needs.
type testEnv struct {
	handler   *APIHandler
	router    http.Handler
	users     *fakeUserRepo
	songs     *fakeSongRepo
	playlists *fakePlaylistRepo
	metadata  *stubMetadata
	tokens    *auth.TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clk := &clock{now: time.Now()}
	users := &fakeUserRepo{clk: clk, users: map[string]*model.User{}}
	songs := &fakeSongRepo{clk: clk, songs: map[string]*model.Song{}}
	playlists := &fakePlaylistRepo{clk: clk, songRepo: songs, playlists: map[string]*model.Playlist{}}
	metadata := &stubMetadata{meta: map[string]*youtube.VideoMeta{
		"abc12345678": {
			VideoID:   "abc12345678",
			Title:     "Test Song",
			Artist:    "Test Artist",
			Thumbnail: "https://img.example/t.jpg",
			Duration:  "192",
		},
	}}
	tokens := auth.NewTokenIssuer("test-secret", 24*time.Hour)

	h := NewAPIHandler(users, songs, playlists, metadata, tokens, &config.Config{})
	return &testEnv{
		handler:   h,
		router:    NewRouter(h),
		users:     users,
		songs:     songs,
		playlists: playlists,
		metadata:  metadata,
		tokens:    tokens,
	}
}

// registerUser registers through the API and returns the user and token.
func (e *testEnv) registerUser(t *testing.T, name, email, password string) (*model.User, string) {
	t.Helper()

	rec := e.request(t, http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res struct {
		User  *model.User `json:"user"`
		Token string      `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res.User, res.Token
}

// request performs one request against the router with a bearer token.
func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	header := ""
	if token != "" {
		header = "Bearer " + token
	}
	return e.requestWithHeader(t, method, path, header, body)
}

// requestWithHeader performs one request with a raw Authorization header.
func (e *testEnv) requestWithHeader(t *testing.T, method, path, authHeader string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(raw)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, reqBody)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}
