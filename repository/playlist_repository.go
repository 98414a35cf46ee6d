package repository

import (
	"errors"
	"fmt"

	"tunecrate/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlaylistRepository defines the interface for playlist data operations,
// including membership of songs in playlists.
type PlaylistRepository interface {
	CreatePlaylist(playlist *model.Playlist) error
	PlaylistsByUser(userID string) ([]model.Playlist, error)
	PlaylistByID(id string) (*model.Playlist, error)
	UpdatePlaylist(id string, name, description *string) (*model.Playlist, error)
	DeletePlaylist(id string) error
	AddSong(playlistID, songID string) error
	RemoveSong(playlistID, songID string) error
	SongsInPlaylist(playlistID string) ([]model.Song, error)
}

// gormPlaylistRepository implements PlaylistRepository on GORM.
type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository creates a new gormPlaylistRepository.
func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

// CreatePlaylist adds a new playlist, assigning a fresh ID.
func (r *gormPlaylistRepository) CreatePlaylist(playlist *model.Playlist) error {
	if playlist.ID == "" {
		playlist.ID = uuid.NewString()
	}
	if err := r.db.Create(playlist).Error; err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}
	return nil
}

// PlaylistsByUser returns all playlists owned by the user, most recent first.
func (r *gormPlaylistRepository) PlaylistsByUser(userID string) ([]model.Playlist, error) {
	var playlists []model.Playlist
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&playlists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists for user %s: %w", userID, err)
	}
	return playlists, nil
}

// PlaylistByID retrieves one playlist by ID.
func (r *gormPlaylistRepository) PlaylistByID(id string) (*model.Playlist, error) {
	var playlist model.Playlist
	if err := r.db.First(&playlist, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query playlist %s: %w", id, err)
	}
	return &playlist, nil
}

// UpdatePlaylist renames or redescribes a playlist; nil fields stay as they
// are. Returns the updated row.
func (r *gormPlaylistRepository) UpdatePlaylist(id string, name, description *string) (*model.Playlist, error) {
	changes := map[string]interface{}{}
	if name != nil {
		changes["name"] = *name
	}
	if description != nil {
		changes["description"] = *description
	}

	if len(changes) > 0 {
		res := r.db.Model(&model.Playlist{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update playlist %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	return r.PlaylistByID(id)
}

// DeletePlaylist removes the playlist's join rows and the playlist itself in
// one transaction, so a crash can never leave orphaned join rows or a
// half-deleted playlist.
func (r *gormPlaylistRepository) DeletePlaylist(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.PlaylistSong{}, "playlist_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete playlist songs for %s: %w", id, err)
		}

		res := tx.Delete(&model.Playlist{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete playlist %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// AddSong creates a membership row. Adding a song that is already in the
// playlist is a no-op, so repeated adds never create duplicate rows.
func (r *gormPlaylistRepository) AddSong(playlistID, songID string) error {
	var count int64
	err := r.db.Model(&model.PlaylistSong{}).
		Where("playlist_id = ? AND song_id = ?", playlistID, songID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check playlist membership: %w", err)
	}
	if count > 0 {
		return nil
	}

	row := &model.PlaylistSong{
		ID:         uuid.NewString(),
		PlaylistID: playlistID,
		SongID:     songID,
	}
	if err := r.db.Create(row).Error; err != nil {
		return fmt.Errorf("failed to add song %s to playlist %s: %w", songID, playlistID, err)
	}
	return nil
}

// RemoveSong deletes the membership row(s) matching the pair.
func (r *gormPlaylistRepository) RemoveSong(playlistID, songID string) error {
	res := r.db.Delete(&model.PlaylistSong{}, "playlist_id = ? AND song_id = ?", playlistID, songID)
	if res.Error != nil {
		return fmt.Errorf("failed to remove song %s from playlist %s: %w", songID, playlistID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SongsInPlaylist returns the playlist's songs in insertion order.
func (r *gormPlaylistRepository) SongsInPlaylist(playlistID string) ([]model.Song, error) {
	var songs []model.Song
	err := r.db.
		Joins("JOIN playlist_songs ON playlist_songs.song_id = songs.id").
		Where("playlist_songs.playlist_id = ?", playlistID).
		Order("playlist_songs.created_at ASC").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query songs in playlist %s: %w", playlistID, err)
	}
	return songs, nil
}
