package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"caza-fotos/internal/db"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

type confirmRequest struct {
	Token string `json:"token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type profileRequest struct {
	DisplayName *string `json:"display_name"`
	Avatar      string  `json:"avatar"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.enforceRateLimit(w, r, "register", 20) {
		return
	}
	var req registerRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email, err := validateEmail(req.Email)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name, err := validateDisplayName(req.DisplayName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	role, err := validateRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// General accounts are usable right after email confirmation;
	// participants wait for an admin decision.
	status := db.StatusActive
	if role == db.RoleParticipant {
		status = db.StatusPending
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}
	user := db.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  name,
		Role:         role,
		Status:       status,
		ConfirmToken: uuid.NewString(),
	}
	if err := s.store.CreateUser(&user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			writeErrorCode(w, http.StatusConflict, "email_taken", "email is already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}
	log.Printf("user registered user_id=%d role=%s status=%s", user.ID, user.Role, user.Status)
	// No mailer is wired up; the token lands in the service log.
	log.Printf("confirmation token issued user_id=%d token=%s", user.ID, user.ConfirmToken)
	s.recordEvent("user_registered", EventPayload{
		UserID: user.ID,
		Role:   user.Role,
		Status: user.Status,
	})
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     user.ID,
		"status": user.Status,
	})
}

func (s *Server) handleConfirmEmail(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := readJSON(r.Body, &req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "confirmation token is required")
		return
	}
	user, err := s.store.UserByConfirmToken(req.Token)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown confirmation token")
		return
	}
	user.EmailConfirmed = true
	user.ConfirmToken = ""
	if err := s.store.UpdateUser(user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to confirm email")
		return
	}
	log.Printf("email confirmed user_id=%d", user.ID)
	writeJSON(w, http.StatusOK, map[string]any{"confirmed": true})
}

func (s *Server) handleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	if !s.enforceRateLimit(w, r, "password_reset", 10) {
		return
	}
	var req resetRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email, err := validateEmail(req.Email)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// The response never reveals whether the address is registered.
	if user, err := s.store.UserByEmail(email); err == nil {
		user.ResetToken = uuid.NewString()
		if err := s.store.UpdateUser(user); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to request password reset")
			return
		}
		// No mailer is wired up; the token lands in the service log.
		log.Printf("password reset token issued user_id=%d token=%s", user.ID, user.ResetToken)
		s.recordEvent("password_reset_requested", EventPayload{UserID: user.ID})
	}
	writeJSON(w, http.StatusOK, map[string]any{"requested": true})
}

func (s *Server) handleConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if err := readJSON(r.Body, &req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "reset token is required")
		return
	}
	if err := validatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := s.store.UserByResetToken(req.Token)
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown reset token")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}
	user.PasswordHash = string(hash)
	user.ResetToken = ""
	if err := s.store.UpdateUser(user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reset password")
		return
	}
	log.Printf("password reset user_id=%d", user.ID)
	s.recordEvent("password_reset", EventPayload{UserID: user.ID})
	writeJSON(w, http.StatusOK, map[string]any{"reset": true})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.enforceRateLimit(w, r, "login", 20) {
		return
	}
	var req loginRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := s.store.UserByEmail(normalizeEmail(req.Email))
	if err != nil {
		writeErrorCode(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeErrorCode(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
		return
	}
	if !user.EmailConfirmed {
		writeErrorCode(w, http.StatusForbidden, "email_unconfirmed", "confirm your email before signing in")
		return
	}
	switch user.Status {
	case db.StatusPending:
		writeErrorCode(w, http.StatusForbidden, "account_pending", "your participant account is awaiting approval")
		return
	case db.StatusRejected:
		writeErrorCode(w, http.StatusForbidden, "account_rejected", "your account was rejected")
		return
	}
	s.sessions.Create(w, user.ID)
	log.Printf("user signed in user_id=%d role=%s", user.ID, user.Role)
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Destroy(w, r)
	writeJSON(w, http.StatusOK, map[string]any{"signed_out": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var req profileRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DisplayName != nil {
		name, err := validateDisplayName(*req.DisplayName)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		user.DisplayName = name
	}
	if req.Avatar != "" {
		if s.objects == nil {
			writeError(w, http.StatusServiceUnavailable, "uploads are not available")
			return
		}
		data, err := decodeImageData(req.Avatar)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid avatar image data")
			return
		}
		if int64(len(data)) > s.cfg.MaxUploadBytes {
			writeError(w, http.StatusRequestEntityTooLarge, "avatar image is too large")
			return
		}
		if _, err := sniffImageFormat(data); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		key := fmt.Sprintf("avatars/%d_%d.jpg", user.ID, time.Now().UnixNano())
		url, err := s.objects.Save(key, data)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to store avatar")
			return
		}
		user.PhotoURL = url
	}
	if err := s.store.UpdateUser(user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	switch user.Role {
	case db.RoleParticipant:
		photos, err := s.store.CountPhotosByUser(user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load stats")
			return
		}
		received, err := s.store.VotesReceived(user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load stats")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"role":           user.Role,
			"photos":         photos,
			"votes_received": received,
		})
	case db.RoleGeneral:
		used, err := s.store.CountVotesSince(user.ID, startOfToday())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load stats")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"role":        user.Role,
			"votes_today": used,
			"daily_limit": s.cfg.DailyVoteLimit,
		})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"role": user.Role})
	}
}
