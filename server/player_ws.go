package server

import (
	"net/http"
	"sync"

	"tunecrate/core/player"
	"tunecrate/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// playerMessage is one inbound frame on a playback session: either a user
// action or a relayed widget event.
type playerMessage struct {
	Action  string        `json:"action"` // select|next|previous|toggle|seek|volume|stop|event
	Index   int           `json:"index,omitempty"`
	Seconds float64       `json:"seconds,omitempty"`
	Volume  int           `json:"volume,omitempty"`
	Event   *player.Event `json:"event,omitempty"`
}

// commandFrame instructs the browser-side widget.
type commandFrame struct {
	Kind    string  `json:"kind"` // "command"
	Cmd     string  `json:"cmd"`  // load|play|pause|seek|volume
	VideoID string  `json:"videoId,omitempty"`
	Seconds float64 `json:"seconds,omitempty"`
	Volume  int     `json:"volume,omitempty"`
}

// stateFrame reports a state machine transition.
type stateFrame struct {
	Kind string `json:"kind"` // "state"
	player.Snapshot
}

// wsWidget relays widget commands over the session socket. The actual
// decode/render happens in the browser; this side only instructs it.
type wsWidget struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsWidget) send(frame commandFrame) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteJSON(frame); err != nil {
		logger.Warn("[PlayerWS] failed to write command", logger.ErrorField(err))
	}
}

func (w *wsWidget) Load(videoID string) {
	w.send(commandFrame{Kind: "command", Cmd: "load", VideoID: videoID})
}
func (w *wsWidget) Play()  { w.send(commandFrame{Kind: "command", Cmd: "play"}) }
func (w *wsWidget) Pause() { w.send(commandFrame{Kind: "command", Cmd: "pause"}) }
func (w *wsWidget) Seek(seconds float64) {
	w.send(commandFrame{Kind: "command", Cmd: "seek", Seconds: seconds})
}
func (w *wsWidget) SetVolume(percent int) {
	w.send(commandFrame{Kind: "command", Cmd: "volume", Volume: percent})
}

// PlayerSessionHandler runs one playback session over a WebSocket. The
// caller's playlist (via ?playlistId=) seeds the queue; inbound frames feed
// the state machine and every transition is pushed back as a state frame.
func (h *APIHandler) PlayerSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var queue []player.Track
	if playlistID := r.URL.Query().Get("playlistId"); playlistID != "" {
		playlist, err := h.playlistRepo.PlaylistByID(playlistID)
		if err != nil {
			respondError(w, http.StatusNotFound, "Playlist not found")
			return
		}
		if playlist.UserID != userID {
			respondError(w, http.StatusForbidden, "Not authorized to access this playlist")
			return
		}

		songs, err := h.playlistRepo.SongsInPlaylist(playlistID)
		if err != nil {
			logger.Error("[PlayerWS] failed to load playlist songs", logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, "Failed to load playlist")
			return
		}
		for _, s := range songs {
			queue = append(queue, player.Track{
				ID:      s.ID,
				Title:   s.Title,
				Artist:  s.Artist,
				VideoID: s.YoutubeID,
			})
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("[PlayerWS] upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	widget := &wsWidget{conn: conn}
	p := player.New(widget, func(snap player.Snapshot) {
		widget.mu.Lock()
		defer widget.mu.Unlock()
		if err := conn.WriteJSON(stateFrame{Kind: "state", Snapshot: snap}); err != nil {
			logger.Warn("[PlayerWS] failed to write state", logger.ErrorField(err))
		}
	})
	p.SetQueue(queue)

	// Initial snapshot so the client can render before any action.
	widget.mu.Lock()
	_ = conn.WriteJSON(stateFrame{Kind: "state", Snapshot: p.Snapshot()})
	widget.mu.Unlock()

	logger.Info("[PlayerWS] session started",
		logger.String("userId", userID),
		logger.Int("queueLength", len(queue)))

	for {
		var msg playerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("[PlayerWS] read failed", logger.ErrorField(err))
			}
			return
		}

		switch msg.Action {
		case "select":
			p.Select(msg.Index)
		case "next":
			p.Next()
		case "previous":
			p.Previous()
		case "toggle":
			p.Toggle()
		case "seek":
			p.Seek(msg.Seconds)
		case "volume":
			p.SetVolume(msg.Volume)
		case "stop":
			p.Stop()
		case "event":
			if msg.Event != nil {
				p.HandleEvent(*msg.Event)
			}
		}
	}
}
