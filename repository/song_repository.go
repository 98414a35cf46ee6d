package repository

import (
	"errors"
	"fmt"

	"tunecrate/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SongRepository defines the interface for song data operations.
type SongRepository interface {
	CreateSong(song *model.Song) error
	SongsByUser(userID string) ([]model.Song, error)
	SongByID(id string) (*model.Song, error)
	UpdateSong(id string, update *model.SongUpdate) (*model.Song, error)
	DeleteSong(id string) error
}

// gormSongRepository implements SongRepository on GORM.
type gormSongRepository struct {
	db *gorm.DB
}

// NewGormSongRepository creates a new gormSongRepository.
func NewGormSongRepository(db *gorm.DB) SongRepository {
	return &gormSongRepository{db: db}
}

// CreateSong adds a new song, assigning a fresh ID.
func (r *gormSongRepository) CreateSong(song *model.Song) error {
	if song.ID == "" {
		song.ID = uuid.NewString()
	}
	if err := r.db.Create(song).Error; err != nil {
		return fmt.Errorf("failed to create song: %w", err)
	}
	return nil
}

// SongsByUser returns all songs owned by the user, most recent first.
func (r *gormSongRepository) SongsByUser(userID string) ([]model.Song, error) {
	var songs []model.Song
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query songs for user %s: %w", userID, err)
	}
	return songs, nil
}

// SongByID retrieves one song by ID.
func (r *gormSongRepository) SongByID(id string) (*model.Song, error) {
	var song model.Song
	if err := r.db.First(&song, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query song %s: %w", id, err)
	}
	return &song, nil
}

// UpdateSong applies only the fields set in update; nil fields stay as they
// are. Returns the updated row.
func (r *gormSongRepository) UpdateSong(id string, update *model.SongUpdate) (*model.Song, error) {
	changes := map[string]interface{}{}
	if update.Title != nil {
		changes["title"] = *update.Title
	}
	if update.Artist != nil {
		changes["artist"] = *update.Artist
	}
	if update.Genre != nil {
		changes["genre"] = *update.Genre
	}
	if update.Purpose != nil {
		changes["purpose"] = *update.Purpose
	}
	if update.EmotionalState != nil {
		changes["emotional_state"] = *update.EmotionalState
	}
	if update.Rating != nil {
		changes["rating"] = *update.Rating
	}
	if update.IsLiked != nil {
		changes["is_liked"] = *update.IsLiked
	}

	if len(changes) > 0 {
		res := r.db.Model(&model.Song{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update song %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	return r.SongByID(id)
}

// DeleteSong removes the song row.
func (r *gormSongRepository) DeleteSong(id string) error {
	res := r.db.Delete(&model.Song{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete song %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
