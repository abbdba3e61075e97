package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"caza-fotos/internal/config"
	"caza-fotos/internal/db"
)

func photoWorkbench(t *testing.T, cfg config.Config) (*Server, *httptest.Server, *http.Client, *http.Client, uint) {
	t.Helper()
	srv, ts := newTestServer(t, cfg)
	admin := newAdminClient(t, srv, ts)
	contestID := createContest(t, ts, admin)
	participant, _ := newParticipantClient(t, srv, ts, admin, "shooter@example.com")
	admitMember(t, ts, admin, participant, contestID)
	return srv, ts, admin, participant, contestID
}

func TestSubmitPhotoStartsPending(t *testing.T) {
	srv, ts, _, participant, contestID := photoWorkbench(t, config.Default())

	resp := uploadPhoto(t, ts, participant, contestID, testImagePNG(t))
	assertStatus(t, resp, http.StatusCreated)
	body := decodeBody(t, resp)
	if body["status"] != db.StatusPending {
		t.Fatalf("expected pending photo, got %v", body["status"])
	}
	if body["url"] == "" {
		t.Fatal("expected a stored object url")
	}
	if body["thumb_url"] == nil || body["thumb_url"] == "" {
		t.Fatal("expected a thumbnail url")
	}

	photo, err := srv.store.PhotoByID(bodyID(t, body, "id"))
	if err != nil {
		t.Fatalf("photo row missing: %v", err)
	}
	if photo.VotesCount != 0 {
		t.Fatalf("new photo should have zero votes, got %d", photo.VotesCount)
	}
}

func TestSubmitPhotoRequiresAdmission(t *testing.T) {
	srv, ts := newTestServer(t, config.Default())
	admin := newAdminClient(t, srv, ts)
	contestID := createContest(t, ts, admin)
	participant, _ := newParticipantClient(t, srv, ts, admin, "outsider@example.com")

	resp := uploadPhoto(t, ts, participant, contestID, testImagePNG(t))
	assertErrorCode(t, resp, http.StatusForbidden, "not_admitted")
}

func TestSubmitPhotoQuota(t *testing.T) {
	cfg := config.Default()
	cfg.SubmissionQuota = 2
	_, ts, _, participant, contestID := photoWorkbench(t, cfg)

	for i := 0; i < 2; i++ {
		resp := uploadPhoto(t, ts, participant, contestID, testImagePNG(t))
		assertStatus(t, resp, http.StatusCreated)
		resp.Body.Close()
	}
	resp := uploadPhoto(t, ts, participant, contestID, testImagePNG(t))
	assertErrorCode(t, resp, http.StatusConflict, "quota_exceeded")
}

func TestSubmitPhotoAfterDeadline(t *testing.T) {
	_, ts, admin, participant, contestID := photoWorkbench(t, config.Default())

	resp := doJSON(t, admin, http.MethodPatch, ts.URL+"/api/contests/"+uitoa(contestID), map[string]string{
		"submission_deadline": "2020-01-01",
	})
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = uploadPhoto(t, ts, participant, contestID, testImagePNG(t))
	assertErrorCode(t, resp, http.StatusConflict, "deadline_passed")
}

func TestSubmitPhotoRejectsNonImage(t *testing.T) {
	_, ts, _, participant, contestID := photoWorkbench(t, config.Default())

	resp := uploadPhoto(t, ts, participant, contestID, []byte("this is not an image"))
	assertStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestGalleryShowsOnlyApprovedByDefault(t *testing.T) {
	_, ts, admin, participant, contestID := photoWorkbench(t, config.Default())

	resp := uploadPhoto(t, ts, participant, contestID, testImagePNG(t))
	assertStatus(t, resp, http.StatusCreated)
	photoID := bodyID(t, decodeBody(t, resp), "id")

	viewer := newClient(t)
	resp = doJSON(t, viewer, http.MethodGet, ts.URL+"/api/contests/"+uitoa(contestID)+"/photos", nil)
	assertStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	if photos := body["photos"].([]any); len(photos) != 0 {
		t.Fatalf("pending photo must not be public, got %v", photos)
	}

	resp = doJSON(t, admin, http.MethodPost, ts.URL+adminPath("photos", photoID), map[string]string{
		"decision": db.StatusApproved,
	})
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doJSON(t, viewer, http.MethodGet, ts.URL+"/api/contests/"+uitoa(contestID)+"/photos", nil)
	assertStatus(t, resp, http.StatusOK)
	body = decodeBody(t, resp)
	if photos := body["photos"].([]any); len(photos) != 1 {
		t.Fatalf("expected the approved photo, got %v", body["photos"])
	}
}

func TestGalleryStatusFilterIsAdminOnly(t *testing.T) {
	_, ts, admin, participant, contestID := photoWorkbench(t, config.Default())

	resp := doJSON(t, participant, http.MethodGet,
		ts.URL+"/api/contests/"+uitoa(contestID)+"/photos?status=pending", nil)
	assertStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	resp = doJSON(t, admin, http.MethodGet,
		ts.URL+"/api/contests/"+uitoa(contestID)+"/photos?status=pending", nil)
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestPhotoDecisionIsTerminal(t *testing.T) {
	srv, ts, admin, participant, contestID := photoWorkbench(t, config.Default())
	photoID := approvedPhoto(t, srv, ts, admin, participant, contestID)

	resp := doJSON(t, admin, http.MethodPost, ts.URL+adminPath("photos", photoID), map[string]string{
		"decision": db.StatusRejected,
	})
	assertStatus(t, resp, http.StatusConflict)
	resp.Body.Close()
}

func TestDeleteOwnPhoto(t *testing.T) {
	srv, ts, admin, participant, contestID := photoWorkbench(t, config.Default())
	photoID := approvedPhoto(t, srv, ts, admin, participant, contestID)

	resp := doJSON(t, participant, http.MethodDelete, ts.URL+"/api/photos/"+uitoa(photoID), nil)
	assertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	if _, err := srv.store.PhotoByID(photoID); err == nil {
		t.Fatal("photo row should be gone")
	}
}

func TestDeleteSomeoneElsesPhoto(t *testing.T) {
	srv, ts, admin, participant, contestID := photoWorkbench(t, config.Default())
	photoID := approvedPhoto(t, srv, ts, admin, participant, contestID)

	general, _ := newGeneralClient(t, srv, ts, "bystander@example.com")
	resp := doJSON(t, general, http.MethodDelete, ts.URL+"/api/photos/"+uitoa(photoID), nil)
	assertStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()
}

func TestMyPhotosListsOwnSubmissions(t *testing.T) {
	_, ts, _, participant, contestID := photoWorkbench(t, config.Default())

	resp := uploadPhoto(t, ts, participant, contestID, testImagePNG(t))
	assertStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = doJSON(t, participant, http.MethodGet, ts.URL+"/api/me/photos", nil)
	assertStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	if photos := body["photos"].([]any); len(photos) != 1 {
		t.Fatalf("expected one photo, got %v", body["photos"])
	}
}
