package server

import (
	"net/http"

	"caza-fotos/internal/config"
	"caza-fotos/internal/storage"

	"gorm.io/gorm"
)

type Server struct {
	store    Store
	db       *gorm.DB
	objects  *storage.Store
	sessions *sessionStore
	feed     *changeHub
	limiter  *rateLimiter
	cfg      config.Config
}

// New builds a Server. With a nil connection all state lives in process,
// which is how the handler tests run.
func New(conn *gorm.DB, objects *storage.Store, cfg config.Config) *Server {
	var store Store
	if conn != nil {
		store = newGormStore(conn)
	} else {
		store = newMemStore()
	}
	return &Server{
		store:    store,
		db:       conn,
		objects:  objects,
		sessions: newSessionStore(conn, cfg.SessionTTLHours),
		feed:     newChangeHub(),
		limiter:  newRateLimiter(),
		cfg:      cfg,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/confirm", s.handleConfirmEmail)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/password-reset", s.handleRequestPasswordReset)
	mux.HandleFunc("POST /api/password-reset/confirm", s.handleConfirmPasswordReset)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/me", s.handleMe)
	mux.HandleFunc("PATCH /api/me", s.handleUpdateProfile)
	mux.HandleFunc("GET /api/me/stats", s.handleMyStats)
	mux.HandleFunc("GET /api/me/photos", s.handleMyPhotos)
	mux.HandleFunc("GET /api/contests", s.handleListContests)
	mux.HandleFunc("POST /api/contests", s.handleCreateContest)
	mux.HandleFunc("GET /api/contests/{id}", s.handleContestDetail)
	mux.HandleFunc("GET /api/contests/{id}/stats", s.handleContestStats)
	mux.HandleFunc("PATCH /api/contests/{id}", s.handleUpdateContest)
	mux.HandleFunc("POST /api/contests/{id}/join", s.handleJoinContest)
	mux.HandleFunc("GET /api/contests/{id}/photos", s.handleContestGallery)
	mux.HandleFunc("POST /api/contests/{id}/photos", s.handleSubmitPhoto)
	mux.HandleFunc("DELETE /api/photos/{id}", s.handleDeletePhoto)
	mux.HandleFunc("POST /api/photos/{id}/votes", s.handleCastVote)
	mux.HandleFunc("GET /ws/changes/{collection}", s.handleChangeFeed)
	if s.objects != nil {
		mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(s.objects.Root()))))
	}
	mux.Handle("/admin/api/", s.adminRouter())
	return mux
}
