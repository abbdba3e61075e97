package server

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"caza-fotos/internal/db"
)

func thumbKeyFor(key string) string {
	if strings.HasSuffix(key, ".jpg") {
		return strings.TrimSuffix(key, ".jpg") + "_thumb.jpg"
	}
	return key + "_thumb.jpg"
}

func (s *Server) handleSubmitPhoto(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if user.Role != db.RoleParticipant || user.Status != db.StatusActive {
		writeErrorCode(w, http.StatusForbidden, "participant_required", "only approved participants can submit photos")
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
	membership, err := s.store.MembershipFor(contest.ID, user.ID)
	if err != nil || membership.Status != db.StatusAdmitted {
		writeErrorCode(w, http.StatusForbidden, "not_admitted", "you are not admitted to this contest")
		return
	}

	// Quota and deadline are checked before the upload is read so a
	// rejected submission never touches the object store.
	count, err := s.store.CountUserPhotos(contest.ID, user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to submit photo")
		return
	}
	if count >= int64(s.cfg.SubmissionQuota) {
		writeErrorCode(w, http.StatusConflict, "quota_exceeded",
			fmt.Sprintf("you already have %d photos in this contest", count))
		return
	}
	if contest.SubmissionDeadline != nil && timeNowUTC().After(*contest.SubmissionDeadline) {
		writeErrorCode(w, http.StatusConflict, "deadline_passed", "the submission deadline has passed")
		return
	}
	if s.objects == nil {
		writeError(w, http.StatusServiceUnavailable, "uploads are not available")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+(1<<20))
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		writeErrorCode(w, http.StatusRequestEntityTooLarge, "too_large", "photo exceeds the upload size limit")
		return
	}
	if _, err := sniffImageFormat(data); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := fmt.Sprintf("photos/%d/%d_%d.jpg", contest.ID, user.ID, time.Now().UnixNano())
	url, err := s.objects.Save(key, data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store photo")
		return
	}
	thumbURL, err := s.objects.SaveThumbnail(thumbKeyFor(key), data, s.cfg.ThumbnailWidth)
	if err != nil {
		// serve the original where the thumbnail is missing
		log.Printf("thumbnail failed key=%s error=%v", key, err)
		thumbURL = ""
	}

	photo := db.Photo{
		ContestID:   contest.ID,
		UserID:      user.ID,
		StoragePath: key,
		PublicURL:   url,
		ThumbURL:    thumbURL,
		Status:      db.StatusPending,
	}
	if err := s.store.CreatePhoto(&photo); err != nil {
		_ = s.objects.Remove(key)
		writeError(w, http.StatusInternalServerError, "failed to submit photo")
		return
	}
	log.Printf("photo submitted photo_id=%d contest_id=%d user_id=%d bytes=%d", photo.ID, contest.ID, user.ID, len(data))
	s.recordEvent("photo_submitted", EventPayload{
		PhotoID:   photo.ID,
		ContestID: contest.ID,
		UserID:    user.ID,
	})
	s.notifyChange(collectionPhotos, "insert", photo)
	writeJSON(w, http.StatusCreated, photo)
}

func (s *Server) handleContestGallery(w http.ResponseWriter, r *http.Request) {
	contestID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusNotFound, "contest not found")
		return
	}
	if _, err := s.store.ContestByID(contestID); err != nil {
		writeError(w, http.StatusNotFound, "contest not found")
		return
	}
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status == "" {
		status = db.StatusApproved
	}
	if status != db.StatusApproved {
		user, err := s.currentUser(r)
		if err != nil || user.Role != db.RoleAdmin {
			writeError(w, http.StatusForbidden, "only admins can filter by status")
			return
		}
	}
	photos, err := s.store.ListContestPhotos(contestID, status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list photos")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"photos": photos})
}

func (s *Server) handleMyPhotos(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	photos, err := s.store.ListUserPhotos(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list photos")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"photos": photos})
}

func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
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
	if photo.UserID != user.ID && user.Role != db.RoleAdmin {
		writeError(w, http.StatusForbidden, "you cannot delete this photo")
		return
	}
	if err := s.store.DeletePhoto(photo.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete photo")
		return
	}
	// Object removal is best effort; the row is already gone.
	if s.objects != nil && photo.StoragePath != "" {
		if err := s.objects.Remove(photo.StoragePath); err != nil {
			log.Printf("object removal failed key=%s error=%v", photo.StoragePath, err)
		}
		if err := s.objects.Remove(thumbKeyFor(photo.StoragePath)); err != nil {
			log.Printf("object removal failed key=%s error=%v", thumbKeyFor(photo.StoragePath), err)
		}
	}
	log.Printf("photo deleted photo_id=%d by=%d", photo.ID, user.ID)
	s.recordEvent("photo_deleted", EventPayload{
		PhotoID:   photo.ID,
		ContestID: photo.ContestID,
		UserID:    user.ID,
	})
	s.notifyChange(collectionPhotos, "delete", map[string]any{
		"id":         photo.ID,
		"contest_id": photo.ContestID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}
