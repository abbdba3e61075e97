package db

import "time"

type Contest struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Title              string     `gorm:"size:140;not null" json:"title"`
	Description        string     `gorm:"size:2000" json:"description"`
	Theme              string     `gorm:"size:140" json:"theme"`
	Prizes             string     `gorm:"size:1000" json:"prizes"`
	SubmissionDeadline *time.Time `json:"submission_deadline,omitempty"`
	VerdictDeadline    *time.Time `json:"verdict_deadline,omitempty"`
	CreatedBy          uint       `gorm:"index;not null" json:"created_by"`
	CreatedAt          time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"not null" json:"-"`
}
