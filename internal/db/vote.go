package db

import "time"

type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null;uniqueIndex:idx_votes_user_photo" json:"user_id"`
	PhotoID   uint      `gorm:"index;not null;uniqueIndex:idx_votes_user_photo" json:"photo_id"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
