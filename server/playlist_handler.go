package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"tunecrate/logger"
	"tunecrate/model"
	"tunecrate/repository"

	"github.com/gorilla/mux"
)

// CreatePlaylistRequest represents the playlist creation body.
type CreatePlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdatePlaylistRequest carries a partial rename/redescribe.
type UpdatePlaylistRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// AddPlaylistSongRequest names the song to add to a playlist.
type AddPlaylistSongRequest struct {
	SongID string `json:"songId"`
}

// GetPlaylistsHandler returns the caller's playlists, most recent first.
func (h *APIHandler) GetPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	playlists, err := h.playlistRepo.PlaylistsByUser(userID)
	if err != nil {
		logger.Error("[Playlists] failed to list playlists", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch playlists")
		return
	}
	if playlists == nil {
		playlists = []model.Playlist{}
	}

	respondJSON(w, http.StatusOK, playlists)
}

// GetPlaylistHandler returns one playlist owned by the caller.
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	playlist, ok := h.ownedPlaylist(w, mux.Vars(r)["id"], userID)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, playlist)
}

// CreatePlaylistHandler creates an empty playlist.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreatePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "Playlist name is required")
		return
	}

	playlist := &model.Playlist{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
	}

	if err := h.playlistRepo.CreatePlaylist(playlist); err != nil {
		logger.Error("[Playlists] failed to create playlist", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create playlist")
		return
	}

	logger.Info("[Playlists] playlist created", logger.String("playlistId", playlist.ID))
	respondJSON(w, http.StatusCreated, playlist)
}

// UpdatePlaylistHandler renames or redescribes a playlist; absent fields are
// untouched.
func (h *APIHandler) UpdatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	playlistID := mux.Vars(r)["id"]
	if _, ok := h.ownedPlaylist(w, playlistID, userID); !ok {
		return
	}

	var req UpdatePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name != nil && *req.Name == "" {
		respondError(w, http.StatusBadRequest, "Playlist name cannot be empty")
		return
	}

	updated, err := h.playlistRepo.UpdatePlaylist(playlistID, req.Name, req.Description)
	if err != nil {
		logger.Error("[Playlists] failed to update playlist", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to update playlist")
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// DeletePlaylistHandler removes the playlist and its membership rows.
func (h *APIHandler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	playlistID := mux.Vars(r)["id"]
	if _, ok := h.ownedPlaylist(w, playlistID, userID); !ok {
		return
	}

	if err := h.playlistRepo.DeletePlaylist(playlistID); err != nil {
		logger.Error("[Playlists] failed to delete playlist", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete playlist")
		return
	}

	logger.Info("[Playlists] playlist deleted", logger.String("playlistId", playlistID))
	respondJSON(w, http.StatusOK, map[string]string{"message": "Playlist deleted successfully"})
}

// AddPlaylistSongHandler adds a song to a playlist. Both the playlist and
// the song must belong to the caller. Repeated adds are idempotent.
func (h *APIHandler) AddPlaylistSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	playlistID := mux.Vars(r)["id"]
	if _, ok := h.ownedPlaylist(w, playlistID, userID); !ok {
		return
	}

	var req AddPlaylistSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SongID == "" {
		respondError(w, http.StatusBadRequest, "Song ID is required")
		return
	}

	if _, ok := h.ownedSong(w, req.SongID, userID); !ok {
		return
	}

	if err := h.playlistRepo.AddSong(playlistID, req.SongID); err != nil {
		logger.Error("[Playlists] failed to add song", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to add song to playlist")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"message": "Song added to playlist"})
}

// RemovePlaylistSongHandler removes a song from a playlist.
func (h *APIHandler) RemovePlaylistSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	vars := mux.Vars(r)
	playlistID := vars["id"]
	songID := vars["songId"]

	if _, ok := h.ownedPlaylist(w, playlistID, userID); !ok {
		return
	}

	if err := h.playlistRepo.RemoveSong(playlistID, songID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Song not in playlist")
			return
		}
		logger.Error("[Playlists] failed to remove song", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to remove song from playlist")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetPlaylistSongsHandler returns the playlist's songs in insertion order.
func (h *APIHandler) GetPlaylistSongsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	playlistID := mux.Vars(r)["id"]
	if _, ok := h.ownedPlaylist(w, playlistID, userID); !ok {
		return
	}

	songs, err := h.playlistRepo.SongsInPlaylist(playlistID)
	if err != nil {
		logger.Error("[Playlists] failed to list playlist songs", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch playlist songs")
		return
	}
	if songs == nil {
		songs = []model.Song{}
	}

	respondJSON(w, http.StatusOK, songs)
}

// ownedPlaylist loads a playlist and enforces ownership, writing the
// appropriate error response when the check fails.
func (h *APIHandler) ownedPlaylist(w http.ResponseWriter, playlistID, userID string) (*model.Playlist, bool) {
	playlist, err := h.playlistRepo.PlaylistByID(playlistID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Playlist not found")
			return nil, false
		}
		logger.Error("[Playlists] failed to query playlist", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	if playlist.UserID != userID {
		respondError(w, http.StatusForbidden, "Not authorized to access this playlist")
		return nil, false
	}
	return playlist, true
}
