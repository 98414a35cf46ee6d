// Package client is the typed Go client for the TuneCrate API. The bearer
// token lives on the Client as an explicit session rather than in ambient
// global state; an injectable OnUnauthorized callback replaces hardwired
// redirect side effects.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"tunecrate/model"
)

// APIError is a non-2xx API response.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("api error %d: %s (%s)", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Options configures a Client.
type Options struct {
	HTTPClient *http.Client
	// OnUnauthorized fires at most once per client, the first time any
	// request comes back 401. The stored token is cleared first.
	OnUnauthorized func()
}

// Client is a typed wrapper over the TuneCrate HTTP API. The session token
// and the one-shot unauthorized latch are plain fields; a Client is not safe
// for concurrent use.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	token          string
	onUnauthorized func()
	unauthFired    bool
}

// New creates an API client for the given base URL.
func New(baseURL string, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:        baseURL,
		httpClient:     httpClient,
		onUnauthorized: opts.OnUnauthorized,
	}
}

// SetToken installs a previously obtained bearer token.
func (c *Client) SetToken(token string) {
	c.token = token
	c.unauthFired = false
}

// Token returns the current session token, empty when logged out.
func (c *Client) Token() string {
	return c.token
}

// AuthResult is the payload of register and login.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Register creates an account and stores the issued token on the client.
func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Login authenticates and stores the issued token on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

// Me fetches the authenticated profile.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSongs returns the caller's songs, most recent first.
func (c *Client) ListSongs(ctx context.Context) ([]model.Song, error) {
	var out []model.Song
	if err := c.do(ctx, http.MethodGet, "/songs", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSong fetches one song by id.
func (c *Client) GetSong(ctx context.Context, id string) (*model.Song, error) {
	var out model.Song
	if err := c.do(ctx, http.MethodGet, "/songs/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSong catalogs a song from a YouTube URL.
func (c *Client) CreateSong(ctx context.Context, youtubeURL string) (*model.Song, error) {
	body := map[string]string{"youtubeUrl": youtubeURL}
	var out model.Song
	if err := c.do(ctx, http.MethodPost, "/songs", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSong applies a partial update; nil fields are untouched.
func (c *Client) UpdateSong(ctx context.Context, id string, update *model.SongUpdate) (*model.Song, error) {
	var out model.Song
	if err := c.do(ctx, http.MethodPatch, "/songs/"+id, update, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSong removes a song.
func (c *Client) DeleteSong(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/songs/"+id, nil, nil)
}

// ListPlaylists returns the caller's playlists, most recent first.
func (c *Client) ListPlaylists(ctx context.Context) ([]model.Playlist, error) {
	var out []model.Playlist
	if err := c.do(ctx, http.MethodGet, "/playlists", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPlaylist fetches one playlist by id.
func (c *Client) GetPlaylist(ctx context.Context, id string) (*model.Playlist, error) {
	var out model.Playlist
	if err := c.do(ctx, http.MethodGet, "/playlists/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePlaylist creates an empty playlist.
func (c *Client) CreatePlaylist(ctx context.Context, name, description string) (*model.Playlist, error) {
	body := map[string]string{"name": name, "description": description}
	var out model.Playlist
	if err := c.do(ctx, http.MethodPost, "/playlists", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePlaylist renames or redescribes a playlist; nil fields are untouched.
func (c *Client) UpdatePlaylist(ctx context.Context, id string, name, description *string) (*model.Playlist, error) {
	body := map[string]*string{"name": name, "description": description}
	var out model.Playlist
	if err := c.do(ctx, http.MethodPut, "/playlists/"+id, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePlaylist removes a playlist and its membership rows.
func (c *Client) DeletePlaylist(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/playlists/"+id, nil, nil)
}

// AddPlaylistSong adds a song to a playlist.
func (c *Client) AddPlaylistSong(ctx context.Context, playlistID, songID string) error {
	body := map[string]string{"songId": songID}
	return c.do(ctx, http.MethodPost, "/playlists/"+playlistID+"/songs", body, nil)
}

// RemovePlaylistSong removes a song from a playlist.
func (c *Client) RemovePlaylistSong(ctx context.Context, playlistID, songID string) error {
	return c.do(ctx, http.MethodDelete, "/playlists/"+playlistID+"/songs/"+songID, nil, nil)
}

// ListPlaylistSongs returns a playlist's songs in insertion order.
func (c *Client) ListPlaylistSongs(ctx context.Context, playlistID string) ([]model.Song, error) {
	var out []model.Song
	if err := c.do(ctx, http.MethodGet, "/playlists/"+playlistID+"/songs", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// do runs one request: attaches the token, maps non-2xx responses to
// *APIError and decodes the payload into out. No retries anywhere.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.token = ""
		if c.onUnauthorized != nil && !c.unauthFired {
			c.unauthFired = true
			c.onUnauthorized()
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if raw, err := io.ReadAll(resp.Body); err == nil && len(raw) > 0 {
			_ = json.Unmarshal(raw, apiErr)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
