package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tunecrate/core/player"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsFrame covers both state and command frames so the test can read either.
type wsFrame struct {
	Kind    string  `json:"kind"`
	Cmd     string  `json:"cmd,omitempty"`
	VideoID string  `json:"videoId,omitempty"`
	Seconds float64 `json:"seconds,omitempty"`
	Volume  int     `json:"volume,omitempty"`

	State player.State  `json:"state,omitempty"`
	Index int           `json:"index,omitempty"`
	Track *player.Track `json:"track,omitempty"`
	Error string        `json:"error,omitempty"`
}

func dialPlayer(t *testing.T, env *testEnv, token, playlistID string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/player/ws"
	if playlistID != "" {
		url += "?playlistId=" + playlistID
	}
	header := http.Header{"Authorization": {"Bearer " + token}}

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readFrame reads frames until it sees one of the wanted kind.
func readFrame(t *testing.T, conn *websocket.Conn, kind string) wsFrame {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		var frame wsFrame
		require.NoError(t, conn.ReadJSON(&frame))
		if frame.Kind == kind {
			return frame
		}
	}
}

func TestPlayerSession(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "A", "a@x.com", "secret1")

	playlist := env.createPlaylist(t, token, "Queue")
	first := env.createSong(t, token)
	second := env.createSong(t, token)
	env.addSong(t, token, playlist.ID, first.ID)
	env.addSong(t, token, playlist.ID, second.ID)

	conn := dialPlayer(t, env, token, playlist.ID)

	// Initial snapshot before any action.
	frame := readFrame(t, conn, "state")
	assert.Equal(t, player.StateIdle, frame.State)
	assert.Nil(t, frame.Track)

	// Selecting a track instructs the widget to load it.
	require.NoError(t, conn.WriteJSON(playerMessage{Action: "select", Index: 0}))
	cmd := readFrame(t, conn, "command")
	assert.Equal(t, "load", cmd.Cmd)
	assert.Equal(t, first.YoutubeID, cmd.VideoID)

	frame = readFrame(t, conn, "state")
	assert.Equal(t, player.StateLoading, frame.State)
	require.NotNil(t, frame.Track)
	assert.Equal(t, first.ID, frame.Track.ID)

	// The widget confirming playback moves the session to playing.
	require.NoError(t, conn.WriteJSON(playerMessage{
		Action: "event", Event: &player.Event{Type: player.EventPlaying},
	}))
	frame = readFrame(t, conn, "state")
	assert.Equal(t, player.StatePlaying, frame.State)

	// Skipping forward loads the second track.
	require.NoError(t, conn.WriteJSON(playerMessage{Action: "next"}))
	cmd = readFrame(t, conn, "command")
	assert.Equal(t, "load", cmd.Cmd)
	assert.Equal(t, second.YoutubeID, cmd.VideoID)

	// Seek and volume carry their values through to the widget.
	require.NoError(t, conn.WriteJSON(playerMessage{Action: "seek", Seconds: 42.5}))
	cmd = readFrame(t, conn, "command")
	assert.Equal(t, "seek", cmd.Cmd)
	assert.Equal(t, 42.5, cmd.Seconds)

	require.NoError(t, conn.WriteJSON(playerMessage{Action: "volume", Volume: 35}))
	cmd = readFrame(t, conn, "command")
	assert.Equal(t, "volume", cmd.Cmd)
	assert.Equal(t, 35, cmd.Volume)
}

func TestPlayerSessionPlaylistAccess(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.registerUser(t, "A", "a@x.com", "secret1")
	_, otherToken := env.registerUser(t, "B", "b@x.com", "secret2")
	playlist := env.createPlaylist(t, ownerToken, "Private")

	t.Run("non-owner cannot seed from the playlist", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/player/ws?playlistId="+playlist.ID, otherToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown playlist", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/player/ws?playlistId=missing", ownerToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/player/ws", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
