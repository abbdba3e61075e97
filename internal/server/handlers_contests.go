package server

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"caza-fotos/internal/db"
)

type contestRequest struct {
	Title              *string `json:"title"`
	Description        *string `json:"description"`
	Theme              *string `json:"theme"`
	Prizes             *string `json:"prizes"`
	SubmissionDeadline *string `json:"submission_deadline"`
	VerdictDeadline    *string `json:"verdict_deadline"`
}

func parseDeadline(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// date-only form used by the contest creation screens
		value, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, errors.New("deadline must be RFC 3339 or YYYY-MM-DD")
		}
	}
	value = value.UTC()
	return &value, nil
}

func deadlinesOrdered(submission, verdict *time.Time) bool {
	if submission == nil || verdict == nil {
		return true
	}
	return !verdict.Before(*submission)
}

func (s *Server) handleCreateContest(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if user.Role != db.RoleAdmin {
		writeError(w, http.StatusForbidden, "only admins can create contests")
		return
	}
	var req contestRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == nil {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	title, err := validateTitle(*req.Title)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	contest := db.Contest{
		Title:     title,
		CreatedBy: user.ID,
	}
	if req.Description != nil {
		contest.Description = strings.TrimSpace(*req.Description)
	}
	if req.Theme != nil {
		contest.Theme = strings.TrimSpace(*req.Theme)
	}
	if req.Prizes != nil {
		contest.Prizes = strings.TrimSpace(*req.Prizes)
	}
	if req.SubmissionDeadline != nil {
		if contest.SubmissionDeadline, err = parseDeadline(*req.SubmissionDeadline); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.VerdictDeadline != nil {
		if contest.VerdictDeadline, err = parseDeadline(*req.VerdictDeadline); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if !deadlinesOrdered(contest.SubmissionDeadline, contest.VerdictDeadline) {
		writeError(w, http.StatusBadRequest, "verdict deadline must not precede submission deadline")
		return
	}
	if err := s.store.CreateContest(&contest); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create contest")
		return
	}
	log.Printf("contest created contest_id=%d created_by=%d", contest.ID, user.ID)
	s.recordEvent("contest_created", EventPayload{ContestID: contest.ID, UserID: user.ID})
	s.notifyChange(collectionContests, "insert", contest)
	writeJSON(w, http.StatusCreated, contest)
}

func (s *Server) handleUpdateContest(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if user.Role != db.RoleAdmin {
		writeError(w, http.StatusForbidden, "only admins can edit contests")
		return
	}
	contestID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusNotFound, "contest not found")
		return
	}
	contest, err := s.store.ContestByID(contestID)
	if err != nil {
		writeError(w, http.StatusNotFound, "contest not found")
		return
	}
	var req contestRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title != nil {
		title, err := validateTitle(*req.Title)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		contest.Title = title
	}
	if req.Description != nil {
		contest.Description = strings.TrimSpace(*req.Description)
	}
	if req.Theme != nil {
		contest.Theme = strings.TrimSpace(*req.Theme)
	}
	if req.Prizes != nil {
		contest.Prizes = strings.TrimSpace(*req.Prizes)
	}
	if req.SubmissionDeadline != nil {
		if contest.SubmissionDeadline, err = parseDeadline(*req.SubmissionDeadline); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.VerdictDeadline != nil {
		if contest.VerdictDeadline, err = parseDeadline(*req.VerdictDeadline); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if !deadlinesOrdered(contest.SubmissionDeadline, contest.VerdictDeadline) {
		writeError(w, http.StatusBadRequest, "verdict deadline must not precede submission deadline")
		return
	}
	if err := s.store.UpdateContest(contest); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update contest")
		return
	}
	log.Printf("contest updated contest_id=%d by=%d", contest.ID, user.ID)
	s.recordEvent("contest_updated", EventPayload{ContestID: contest.ID, UserID: user.ID})
	s.notifyChange(collectionContests, "update", contest)
	writeJSON(w, http.StatusOK, contest)
}

func (s *Server) handleListContests(w http.ResponseWriter, r *http.Request) {
	contests, err := s.store.ListContests()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list contests")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contests": contests})
}

const contestStatsTopPhotos = 5

func (s *Server) handleContestStats(w http.ResponseWriter, r *http.Request) {
	contestID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusNotFound, "contest not found")
		return
	}
	if _, err := s.store.ContestByID(contestID); err != nil {
		writeError(w, http.StatusNotFound, "contest not found")
		return
	}
	admitted, err := s.store.CountMemberships(contestID, db.StatusAdmitted)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	photos, err := s.store.ListContestPhotos(contestID, db.StatusApproved)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	if len(photos) > contestStatsTopPhotos {
		photos = photos[:contestStatsTopPhotos]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"contest_id":       contestID,
		"admitted_members": admitted,
		"top_photos":       photos,
	})
}

func (s *Server) handleContestDetail(w http.ResponseWriter, r *http.Request) {
	contestID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusNotFound, "contest not found")
		return
	}
	contest, err := s.store.ContestByID(contestID)
	if err != nil {
		writeError(w, http.StatusNotFound, "contest not found")
		return
	}
	membershipStatus := ""
	if user, err := s.currentUser(r); err == nil {
		if membership, err := s.store.MembershipFor(contest.ID, user.ID); err == nil {
			membershipStatus = membership.Status
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"contest":           contest,
		"membership_status": membershipStatus,
	})
}
