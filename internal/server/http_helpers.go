package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"caza-fotos/internal/db"
)

var errUnauthorized = errors.New("authentication required")

func readJSON(body io.Reader, dest any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeErrorCode adds a stable machine-readable code next to the message, for
// the outcomes clients branch on (already_voted, daily_limit, ...).
func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

func pathID(r *http.Request, name string) (uint, error) {
	raw := r.PathValue(name)
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || value == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(value), nil
}

func (s *Server) currentUser(r *http.Request) (*db.User, error) {
	userID, ok := s.sessions.UserID(r)
	if !ok {
		return nil, errUnauthorized
	}
	user, err := s.store.UserByID(userID)
	if err != nil {
		return nil, errUnauthorized
	}
	return user, nil
}
