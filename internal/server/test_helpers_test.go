package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"caza-fotos/internal/config"
	"caza-fotos/internal/db"
	"caza-fotos/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

const testPassword = "secret-password"

func newTestServer(t *testing.T, cfg config.Config) (*Server, *httptest.Server) {
	t.Helper()
	objects, err := storage.New(t.TempDir(), "")
	if err != nil {
		t.Fatalf("storage setup failed: %v", err)
	}
	srv := New(nil, objects, cfg)
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: srv.Handler()},
	}
	ts.Start()
	t.Cleanup(ts.Close)
	return srv, ts
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func bodyID(t *testing.T, body map[string]any, key string) uint {
	t.Helper()
	value, ok := body[key].(float64)
	if !ok {
		t.Fatalf("expected numeric %q in response, got %v", key, body[key])
	}
	return uint(value)
}

func assertStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d", want, resp.StatusCode)
	}
}

func assertErrorCode(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d", status, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["code"] != code {
		t.Fatalf("expected error code %q, got %v", code, body["code"])
	}
}

// registerAndConfirm drives the registration flow and confirms the email
// using the token the server issued.
func registerAndConfirm(t *testing.T, srv *Server, ts *httptest.Server, client *http.Client, email, role string) uint {
	t.Helper()
	resp := doJSON(t, client, http.MethodPost, ts.URL+"/api/register", map[string]string{
		"email":        email,
		"password":     testPassword,
		"display_name": "Test User",
		"role":         role,
	})
	assertStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	user, err := srv.store.UserByEmail(email)
	if err != nil {
		t.Fatalf("registered user missing: %v", err)
	}
	resp = doJSON(t, client, http.MethodPost, ts.URL+"/api/confirm", map[string]string{
		"token": user.ConfirmToken,
	})
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	return user.ID
}

func signIn(t *testing.T, ts *httptest.Server, client *http.Client, email string) {
	t.Helper()
	resp := doJSON(t, client, http.MethodPost, ts.URL+"/api/login", map[string]string{
		"email":    email,
		"password": testPassword,
	})
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

// seedAdmin writes an admin account straight into the store; admin accounts
// are provisioned out of band in production too.
func seedAdmin(t *testing.T, srv *Server) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	admin := db.User{
		Email:          "admin@example.com",
		PasswordHash:   string(hash),
		DisplayName:    "Admin",
		Role:           db.RoleAdmin,
		Status:         db.StatusActive,
		EmailConfirmed: true,
	}
	if err := srv.store.CreateUser(&admin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return admin.Email
}

func newAdminClient(t *testing.T, srv *Server, ts *httptest.Server) *http.Client {
	t.Helper()
	client := newClient(t)
	signIn(t, ts, client, seedAdmin(t, srv))
	return client
}

// newParticipantClient registers a participant, gets it approved through the
// admin API and signs it in.
func newParticipantClient(t *testing.T, srv *Server, ts *httptest.Server, admin *http.Client, email string) (*http.Client, uint) {
	t.Helper()
	client := newClient(t)
	userID := registerAndConfirm(t, srv, ts, client, email, db.RoleParticipant)
	resp := doJSON(t, admin, http.MethodPost, ts.URL+adminPath("users", userID), map[string]string{
		"decision": db.StatusActive,
	})
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	signIn(t, ts, client, email)
	return client, userID
}

func newGeneralClient(t *testing.T, srv *Server, ts *httptest.Server, email string) (*http.Client, uint) {
	t.Helper()
	client := newClient(t)
	userID := registerAndConfirm(t, srv, ts, client, email, db.RoleGeneral)
	signIn(t, ts, client, email)
	return client, userID
}

func adminPath(kind string, id uint) string {
	switch kind {
	case "users":
		return "/admin/api/users/" + uitoa(id) + "/decision"
	case "memberships":
		return "/admin/api/memberships/" + uitoa(id) + "/decision"
	case "photos":
		return "/admin/api/photos/" + uitoa(id) + "/decision"
	}
	return ""
}

func uitoa(value uint) string {
	data, _ := json.Marshal(value)
	return string(data)
}

func createContest(t *testing.T, ts *httptest.Server, admin *http.Client) uint {
	t.Helper()
	resp := doJSON(t, admin, http.MethodPost, ts.URL+"/api/contests", map[string]string{
		"title":       "Summer Shots",
		"description": "Best summer photo wins",
		"theme":       "summer",
		"prizes":      "three prizes",
	})
	assertStatus(t, resp, http.StatusCreated)
	return bodyID(t, decodeBody(t, resp), "id")
}

// admitMember walks the join-request flow: participant asks, admin admits.
func admitMember(t *testing.T, ts *httptest.Server, admin, participant *http.Client, contestID uint) {
	t.Helper()
	resp := doJSON(t, participant, http.MethodPost, ts.URL+"/api/contests/"+uitoa(contestID)+"/join", nil)
	assertStatus(t, resp, http.StatusCreated)
	membershipID := bodyID(t, decodeBody(t, resp), "id")

	resp = doJSON(t, admin, http.MethodPost, ts.URL+adminPath("memberships", membershipID), map[string]string{
		"decision": db.StatusAdmitted,
	})
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func testImagePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func uploadPhoto(t *testing.T, ts *httptest.Server, client *http.Client, contestID uint, payload []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "photo.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/contests/"+uitoa(contestID)+"/photos", &buf)
	if err != nil {
		t.Fatalf("build upload request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("upload photo: %v", err)
	}
	return resp
}

// approvedPhoto sets up a contest with one approved photo and returns its id.
func approvedPhoto(t *testing.T, srv *Server, ts *httptest.Server, admin, participant *http.Client, contestID uint) uint {
	t.Helper()
	resp := uploadPhoto(t, ts, participant, contestID, testImagePNG(t))
	assertStatus(t, resp, http.StatusCreated)
	photoID := bodyID(t, decodeBody(t, resp), "id")

	resp = doJSON(t, admin, http.MethodPost, ts.URL+adminPath("photos", photoID), map[string]string{
		"decision": db.StatusApproved,
	})
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	return photoID
}
