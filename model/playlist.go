package model

import "time"

// Playlist is a named, ordered collection of songs owned by one user.
type Playlist struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	UserID      string    `json:"userId" gorm:"size:36;not null;index"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"size:1024"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistSong is the join row expressing membership of a song in a
// playlist. CreatedAt is the ordering key for playback.
type PlaylistSong struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	PlaylistID string    `json:"playlistId" gorm:"size:36;not null;index"`
	SongID     string    `json:"songId" gorm:"size:36;not null;index"`
	CreatedAt  time.Time `json:"createdAt"`
}
