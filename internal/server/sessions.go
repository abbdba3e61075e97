package server

import (
	"net/http"
	"sync"
	"time"

	"caza-fotos/internal/db"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const sessionCookie = "cf_session"

// sessionStore keeps signed-in sessions. With a database connection the
// records live in the sessions table, otherwise in an in-process map.
type sessionStore struct {
	db       *gorm.DB
	ttl      time.Duration
	mu       sync.Mutex
	sessions map[string]db.Session
}

func newSessionStore(conn *gorm.DB, ttlHours int) *sessionStore {
	if ttlHours <= 0 {
		ttlHours = 72
	}
	return &sessionStore{
		db:       conn,
		ttl:      time.Duration(ttlHours) * time.Hour,
		sessions: make(map[string]db.Session),
	}
}

func (s *sessionStore) Create(w http.ResponseWriter, userID uint) string {
	record := db.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: timeNowUTC().Add(s.ttl),
		CreatedAt: timeNowUTC(),
	}
	if s.db == nil {
		s.mu.Lock()
		s.sessions[record.ID] = record
		s.mu.Unlock()
	} else {
		_ = s.db.Create(&record).Error
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    record.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  record.ExpiresAt,
	})
	return record.ID
}

func (s *sessionStore) UserID(r *http.Request) (uint, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return 0, false
	}
	var record db.Session
	if s.db == nil {
		s.mu.Lock()
		record, _ = s.sessions[cookie.Value]
		s.mu.Unlock()
	} else {
		if err := s.db.Where("id = ?", cookie.Value).First(&record).Error; err != nil {
			return 0, false
		}
	}
	if record.UserID == 0 || timeNowUTC().After(record.ExpiresAt) {
		return 0, false
	}
	return record.UserID, true
}

func (s *sessionStore) Destroy(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		if s.db == nil {
			s.mu.Lock()
			delete(s.sessions, cookie.Value)
			s.mu.Unlock()
		} else {
			_ = s.db.Delete(&db.Session{}, "id = ?", cookie.Value).Error
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
