package server

import (
	"errors"
	"log"
	"net/http"

	"caza-fotos/internal/db"
)

func (s *Server) handleJoinContest(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if user.Role != db.RoleParticipant {
		writeErrorCode(w, http.StatusForbidden, "participant_required", "only participants can join contests")
		return
	}
	if user.Status != db.StatusActive {
		writeErrorCode(w, http.StatusForbidden, "account_pending", "your account has not been approved yet")
		return
	}
	contestID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusNotFound, "contest not found")
		return
	}
	if _, err := s.store.ContestByID(contestID); err != nil {
		writeError(w, http.StatusNotFound, "contest not found")
		return
	}
	membership := db.Membership{
		ContestID: contestID,
		UserID:    user.ID,
		Status:    db.StatusPending,
	}
	if err := s.store.CreateMembership(&membership); err != nil {
		if errors.Is(err, ErrAlreadyRequested) {
			writeErrorCode(w, http.StatusConflict, "already_requested", "participation already requested for this contest")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to request participation")
		return
	}
	log.Printf("participation requested contest_id=%d user_id=%d", contestID, user.ID)
	s.recordEvent("membership_requested", EventPayload{
		ContestID:    contestID,
		UserID:       user.ID,
		MembershipID: membership.ID,
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     membership.ID,
		"status": membership.Status,
	})
}
