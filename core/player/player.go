// Package player implements the playback state machine. It owns the logical
// track pointer and play/pause intent for one listening session; decode and
// rendering belong to the external player widget, which the machine only
// instructs through the Widget interface.
package player

import (
	"sync"
)

// State is the playback state of a session.
type State string

const (
	StateIdle    State = "idle"    // No track loaded.
	StateLoading State = "loading" // Widget told to load, not yet confirmed.
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// Track is the minimal track info the machine needs to drive the widget.
type Track struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	VideoID string `json:"videoId"`
}

// Widget is the external embeddable player the machine controls.
type Widget interface {
	Load(videoID string)
	Play()
	Pause()
	Seek(seconds float64)
	SetVolume(percent int)
}

// EventType identifies a widget callback event.
type EventType string

const (
	EventReady   EventType = "ready"
	EventPlaying EventType = "playing"
	EventPaused  EventType = "paused"
	EventEnded   EventType = "ended"
	EventError   EventType = "error"
)

// Event is one inbound widget callback.
type Event struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
}

// Snapshot is the externally visible session state after a transition.
type Snapshot struct {
	State State  `json:"state"`
	Index int    `json:"index"`
	Track *Track `json:"track,omitempty"`
	Error string `json:"error,omitempty"`
}

// Player is the playback state machine for one session.
type Player struct {
	mu       sync.Mutex
	widget   Widget
	queue    []Track
	index    int
	state    State
	lastErr  string
	onChange func(Snapshot)
}

// New creates an idle player driving the given widget. onChange, if not nil,
// is invoked after every state transition.
func New(widget Widget, onChange func(Snapshot)) *Player {
	return &Player{
		widget:   widget,
		state:    StateIdle,
		index:    -1,
		onChange: onChange,
	}
}

// SetQueue replaces the session's playlist. A current track that still fits
// the new queue keeps playing; when the current index falls outside it the
// session drops back to idle.
func (p *Player) SetQueue(tracks []Track) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = tracks
	if p.index >= len(tracks) {
		p.index = -1
		if p.state != StateIdle {
			p.transitionLocked(StateIdle)
		}
	}
}

// Select loads the track at the given queue index.
func (p *Player) Select(index int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.queue) {
		return
	}
	p.loadLocked(index)
}

// Next advances to the adjacent track with wrap-around. Always defined for a
// non-empty queue; for a single-track queue it reloads the same track.
func (p *Player) Next() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return
	}
	if p.index < 0 {
		p.loadLocked(0)
		return
	}
	p.loadLocked((p.index + 1) % len(p.queue))
}

// Previous moves to the preceding track with wrap-around.
func (p *Player) Previous() {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.queue)
	if n == 0 {
		return
	}
	if p.index < 0 {
		p.loadLocked(n - 1)
		return
	}
	p.loadLocked((p.index - 1 + n) % n)
}

// Toggle flips between playing and paused. A toggle in any other state is
// ignored; the widget has nothing loaded to act on.
func (p *Player) Toggle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case StatePlaying:
		p.widget.Pause()
		p.transitionLocked(StatePaused)
	case StatePaused:
		p.widget.Play()
		p.transitionLocked(StatePlaying)
	}
}

// Seek forwards a position change to the widget. Ignored when nothing is
// loaded.
func (p *Player) Seek(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.index < 0 {
		return
	}
	p.widget.Seek(seconds)
}

// SetVolume forwards a volume change to the widget.
func (p *Player) SetVolume(percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.widget.SetVolume(percent)
}

// Stop clears the current track and returns to idle.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.index = -1
	p.lastErr = ""
	p.transitionLocked(StateIdle)
}

// HandleEvent feeds one widget callback into the machine.
func (p *Player) HandleEvent(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Type {
	case EventReady, EventPlaying:
		if p.state == StateLoading || p.state == StatePaused || p.state == StatePlaying {
			p.lastErr = ""
			p.transitionLocked(StatePlaying)
		}
	case EventPaused:
		if p.state == StatePlaying {
			p.transitionLocked(StatePaused)
		}
	case EventEnded:
		p.handleEndedLocked()
	case EventError:
		// Unplayable track: surface the message once and clear the track.
		p.lastErr = ev.Message
		if p.lastErr == "" {
			p.lastErr = "playback error"
		}
		p.index = -1
		p.transitionLocked(StateIdle)
	}
}

// Snapshot returns the current session state.
func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// handleEndedLocked advances through the playlist on track-end, wrapping at
// the end; with no queue the session goes idle.
func (p *Player) handleEndedLocked() {
	if len(p.queue) == 0 || p.index < 0 {
		p.index = -1
		p.transitionLocked(StateIdle)
		return
	}
	p.loadLocked((p.index + 1) % len(p.queue))
}

func (p *Player) loadLocked(index int) {
	p.index = index
	p.lastErr = ""
	p.widget.Load(p.queue[index].VideoID)
	p.transitionLocked(StateLoading)
}

func (p *Player) transitionLocked(next State) {
	p.state = next
	if p.onChange != nil {
		p.onChange(p.snapshotLocked())
	}
}

func (p *Player) snapshotLocked() Snapshot {
	snap := Snapshot{
		State: p.state,
		Index: p.index,
		Error: p.lastErr,
	}
	if p.index >= 0 && p.index < len(p.queue) {
		t := p.queue[p.index]
		snap.Track = &t
	}
	return snap
}
