package db

import "time"

const StatusAdmitted = "admitted"

type Membership struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ContestID uint      `gorm:"index;not null;uniqueIndex:idx_memberships_contest_user" json:"contest_id"`
	UserID    uint      `gorm:"index;not null;uniqueIndex:idx_memberships_contest_user" json:"user_id"`
	Status    string    `gorm:"size:16;not null;index" json:"status"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`
}
