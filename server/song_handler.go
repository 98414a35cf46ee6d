package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"tunecrate/core/youtube"
	"tunecrate/logger"
	"tunecrate/model"
	"tunecrate/repository"
	"tunecrate/storage"

	"github.com/gorilla/mux"
)

// CreateSongRequest carries the submitted video URL.
type CreateSongRequest struct {
	YoutubeURL string `json:"youtubeUrl"`
}

// GetSongsHandler returns the caller's songs, most recent first.
func (h *APIHandler) GetSongsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	songs, err := h.songRepo.SongsByUser(userID)
	if err != nil {
		logger.Error("[Songs] failed to list songs", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to fetch songs")
		return
	}
	if songs == nil {
		songs = []model.Song{}
	}

	respondJSON(w, http.StatusOK, songs)
}

// GetSongHandler returns one song. A song that does not exist is 404; a song
// owned by someone else is 403, and nothing beyond that status leaks.
func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	song, ok := h.ownedSong(w, mux.Vars(r)["id"], userID)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, song)
}

// CreateSongHandler resolves metadata for a submitted video URL and catalogs
// the song under the caller.
func (h *APIHandler) CreateSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.YoutubeURL == "" {
		respondError(w, http.StatusBadRequest, "YouTube URL is required")
		return
	}

	videoID, err := youtube.ExtractVideoID(req.YoutubeURL)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid YouTube URL format")
		return
	}

	meta, err := h.metadata.Lookup(r.Context(), videoID)
	if err != nil {
		// Upstream failure, not a client mistake; reason goes in details.
		logger.Error("[Songs] metadata lookup failed",
			logger.String("videoId", videoID),
			logger.ErrorField(err))
		respondErrorDetails(w, http.StatusBadGateway, "Failed to fetch video information", err.Error())
		return
	}

	thumbnail := meta.Thumbnail
	if mirrored, err := storage.MirrorThumbnail(r.Context(), h.cfg, videoID, meta.Thumbnail); err == nil {
		thumbnail = mirrored
	}

	song := &model.Song{
		UserID:    userID,
		Title:     meta.Title,
		Artist:    meta.Artist,
		YoutubeID: videoID,
		Thumbnail: thumbnail,
		Duration:  meta.Duration,
	}

	if err := h.songRepo.CreateSong(song); err != nil {
		logger.Error("[Songs] failed to create song", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create song")
		return
	}

	logger.Info("[Songs] song created",
		logger.String("songId", song.ID),
		logger.String("videoId", videoID))
	respondJSON(w, http.StatusCreated, song)
}

// UpdateSongHandler applies a partial update; fields absent from the body
// are untouched.
func (h *APIHandler) UpdateSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	songID := mux.Vars(r)["id"]
	if _, ok := h.ownedSong(w, songID, userID); !ok {
		return
	}

	var update model.SongUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.songRepo.UpdateSong(songID, &update)
	if err != nil {
		logger.Error("[Songs] failed to update song", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to update song")
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// DeleteSongHandler removes a song owned by the caller.
func (h *APIHandler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	songID := mux.Vars(r)["id"]
	if _, ok := h.ownedSong(w, songID, userID); !ok {
		return
	}

	if err := h.songRepo.DeleteSong(songID); err != nil {
		logger.Error("[Songs] failed to delete song", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to delete song")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ownedSong loads a song and enforces ownership, writing the appropriate
// error response when the check fails.
func (h *APIHandler) ownedSong(w http.ResponseWriter, songID, userID string) (*model.Song, bool) {
	song, err := h.songRepo.SongByID(songID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Song not found")
			return nil, false
		}
		logger.Error("[Songs] failed to query song", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	if song.UserID != userID {
		respondError(w, http.StatusForbidden, "Not authorized to access this song")
		return nil, false
	}
	return song, true
}
