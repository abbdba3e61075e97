package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func sessionRequest(t *testing.T, recorder *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	for _, cookie := range recorder.Result().Cookies() {
		req.AddCookie(cookie)
	}
	return req
}

func TestSessionRoundTrip(t *testing.T) {
	store := newSessionStore(nil, 1)
	recorder := httptest.NewRecorder()
	store.Create(recorder, 42)

	userID, ok := store.UserID(sessionRequest(t, recorder))
	if !ok || userID != 42 {
		t.Fatalf("expected user 42, got %d (ok=%v)", userID, ok)
	}
}

func TestSessionExpiry(t *testing.T) {
	store := newSessionStore(nil, 1)
	store.ttl = -time.Hour
	recorder := httptest.NewRecorder()
	store.Create(recorder, 42)

	if _, ok := store.UserID(sessionRequest(t, recorder)); ok {
		t.Fatal("expired session should not resolve")
	}
}

func TestSessionDestroy(t *testing.T) {
	store := newSessionStore(nil, 1)
	recorder := httptest.NewRecorder()
	store.Create(recorder, 42)
	req := sessionRequest(t, recorder)

	destroyRecorder := httptest.NewRecorder()
	store.Destroy(destroyRecorder, req)

	if _, ok := store.UserID(req); ok {
		t.Fatal("destroyed session should not resolve")
	}
}

func TestSessionMissingCookie(t *testing.T) {
	store := newSessionStore(nil, 1)
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if _, ok := store.UserID(req); ok {
		t.Fatal("request without a cookie should not resolve")
	}
}
