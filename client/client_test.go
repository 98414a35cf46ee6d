package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tunecrate/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientAttachesToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]model.Song{})
	}))
	defer srv.Close()

	c := New(srv.URL, Options{})
	c.SetToken("tok-123")

	_, err := c.ListSongs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		json.NewEncoder(w).Encode(AuthResult{
			User:  &model.User{ID: "u1", Email: "a@x.com"},
			Token: "fresh-token",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, Options{})
	res, err := c.Login(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u1", res.User.ID)
	assert.Equal(t, "fresh-token", c.Token())
}

func TestUnauthorizedClearsTokenAndFiresOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid token"})
	}))
	defer srv.Close()

	fired := 0
	c := New(srv.URL, Options{OnUnauthorized: func() { fired++ }})
	c.SetToken("stale")

	_, err := c.ListSongs(context.Background())
	require.Error(t, err)
	assert.Empty(t, c.Token())
	assert.Equal(t, 1, fired)

	// Further 401s do not re-fire the callback.
	_, err = c.ListSongs(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, fired)

	// A fresh login arms it again.
	c.SetToken("new")
	_, err = c.ListSongs(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, fired)
}

func TestAPIErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "Failed to fetch video information",
			"details": "youtube api returned status 403",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, Options{})
	_, err := c.CreateSong(context.Background(), "https://youtu.be/abc12345678")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Failed to fetch video information", apiErr.Message)
	assert.Contains(t, apiErr.Details, "403")
}

func TestDeleteSongNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, Options{})
	c.SetToken("tok")
	assert.NoError(t, c.DeleteSong(context.Background(), "s1"))
}
