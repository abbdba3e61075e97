package server

import (
	"errors"
	"log"
	"net/http"
	"time"

	"caza-fotos/internal/db"
)

func startOfToday() time.Time {
	now := timeNowUTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	if !s.enforceRateLimit(w, r, "vote", 60) {
		return
	}
	user, err := s.currentUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if user.Role != db.RoleGeneral || user.Status != db.StatusActive {
		writeErrorCode(w, http.StatusForbidden, "voting_not_allowed", "only active general users can vote")
		return
	}
	photoID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusNotFound, "photo not found")
		return
	}
	photo, err := s.store.PhotoByID(photoID)
	if err != nil {
		writeError(w, http.StatusNotFound, "photo not found")
		return
	}
	if photo.Status != db.StatusApproved {
		writeErrorCode(w, http.StatusConflict, "not_votable", "photo is not open for voting")
		return
	}

	used, err := s.store.CountVotesSince(user.ID, startOfToday())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to cast vote")
		return
	}
	if used >= int64(s.cfg.DailyVoteLimit) {
		writeErrorCode(w, http.StatusTooManyRequests, "daily_limit",
			"you have used all your votes for today")
		return
	}

	votesCount, err := s.store.CastVote(user.ID, photo.ID)
	if err != nil {
		if errors.Is(err, ErrAlreadyVoted) {
			writeErrorCode(w, http.StatusConflict, "already_voted", "you already voted for this photo")
			return
		}
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "photo not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to cast vote")
		return
	}
	log.Printf("vote cast user_id=%d photo_id=%d votes_count=%d", user.ID, photo.ID, votesCount)
	s.recordEvent("vote_cast", EventPayload{
		UserID:     user.ID,
		PhotoID:    photo.ID,
		VotesCount: votesCount,
	})
	photo.VotesCount = votesCount
	s.notifyChange(collectionPhotos, "update", photo)
	writeJSON(w, http.StatusOK, map[string]any{
		"photo_id":    photo.ID,
		"votes_count": votesCount,
	})
}
