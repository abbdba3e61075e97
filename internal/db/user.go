package db

import "time"

const (
	RoleGeneral     = "general"
	RoleParticipant = "participant"
	RoleAdmin       = "admin"
)

const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusRejected = "rejected"
)

type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"size:128;not null" json:"-"`
	DisplayName    string    `gorm:"size:64;not null" json:"display_name"`
	Role           string    `gorm:"size:16;not null;index" json:"role"`
	Status         string    `gorm:"size:16;not null;index" json:"status"`
	PhotoURL       string    `gorm:"size:512" json:"photo_url,omitempty"`
	EmailConfirmed bool      `gorm:"not null;default:false" json:"email_confirmed"`
	ConfirmToken   string    `gorm:"size:64;index" json:"-"`
	ResetToken     string    `gorm:"size:64;index" json:"-"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"-"`
}
