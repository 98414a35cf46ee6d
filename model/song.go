package model

import "time"

// Song represents a catalogued track sourced from YouTube. Title, artist and
// thumbnail come from the metadata lookup at creation time; rating, genre and
// the mood tags are user-editable afterwards.
type Song struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	UserID         string    `json:"userId" gorm:"size:36;not null;index"`
	Title          string    `json:"title" gorm:"size:255;not null"`
	Artist         string    `json:"artist" gorm:"size:255"`
	YoutubeID      string    `json:"youtubeId" gorm:"size:16;not null"`
	Thumbnail      string    `json:"thumbnail" gorm:"size:512"`
	Duration       string    `json:"duration" gorm:"size:16"` // Seconds, as reported by the metadata lookup.
	Genre          string    `json:"genre" gorm:"size:100"`
	Purpose        string    `json:"purpose" gorm:"size:100"`
	EmotionalState string    `json:"emotionalState" gorm:"size:100"`
	Rating         int       `json:"rating"`
	IsLiked        bool      `json:"isLiked"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// SongUpdate carries a partial update for a song. Nil fields are left
// untouched.
type SongUpdate struct {
	Title          *string `json:"title"`
	Artist         *string `json:"artist"`
	Genre          *string `json:"genre"`
	Purpose        *string `json:"purpose"`
	EmotionalState *string `json:"emotionalState"`
	Rating         *int    `json:"rating"`
	IsLiked        *bool   `json:"isLiked"`
}
