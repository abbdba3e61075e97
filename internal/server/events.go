package server

import (
	"encoding/json"
	"log"

	"caza-fotos/internal/db"

	"gorm.io/datatypes"
)

type EventPayload struct {
	UserID       uint   `json:"user_id,omitempty"`
	ContestID    uint   `json:"contest_id,omitempty"`
	PhotoID      uint   `json:"photo_id,omitempty"`
	MembershipID uint   `json:"membership_id,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
	Status       string `json:"status,omitempty"`
	Decision     string `json:"decision,omitempty"`
	VotesCount   int    `json:"votes_count,omitempty"`
}

func (s *Server) recordEvent(eventType string, payload EventPayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	event := db.Event{
		Type:    eventType,
		Payload: datatypes.JSON(data),
	}
	if err := s.store.AppendEvent(&event); err != nil {
		log.Printf("event append failed type=%s error=%v", eventType, err)
	}
}
