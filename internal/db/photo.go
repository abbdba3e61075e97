package db

import "time"

const StatusApproved = "approved"

type Photo struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ContestID   uint      `gorm:"index;not null" json:"contest_id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	StoragePath string    `gorm:"size:512;not null" json:"-"`
	PublicURL   string    `gorm:"size:512;not null" json:"url"`
	ThumbURL    string    `gorm:"size:512" json:"thumb_url,omitempty"`
	Status      string    `gorm:"size:16;not null;index" json:"status"`
	VotesCount  int       `gorm:"not null;default:0" json:"votes_count"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"-"`
}
