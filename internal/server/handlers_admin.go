package server

import (
	"log"
	"net/http"

	"caza-fotos/internal/db"

	"github.com/gin-gonic/gin"
)

type idParam struct {
	ID uint `uri:"id" binding:"required"`
}

type decisionRequest struct {
	Decision string `json:"decision" binding:"required,decision"`
}

var decisionMessages = bindMessages{
	"Decision": {
		"required": "decision is required",
		"decision": "decision is not one of the allowed values",
	},
}

func (s *Server) adminRouter() http.Handler {
	registerValidators()
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	api := router.Group("/admin/api", s.requireAdmin)
	api.GET("/users", s.handleAdminListUsers)
	api.POST("/users/:id/decision", s.handleAdminDecideUser)
	api.GET("/contests/:id/memberships", s.handleAdminListMemberships)
	api.POST("/memberships/:id/decision", s.handleAdminDecideMembership)
	api.GET("/contests/:id/photos", s.handleAdminListPhotos)
	api.POST("/photos/:id/decision", s.handleAdminDecidePhoto)
	api.GET("/events", s.handleAdminListEvents)
	return router
}

func (s *Server) requireAdmin(c *gin.Context) {
	user, err := s.currentUser(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	if user.Role != db.RoleAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}
	c.Next()
}

func (s *Server) handleAdminListUsers(c *gin.Context) {
	status := c.Query("status")
	role := c.DefaultQuery("role", db.RoleParticipant)
	users, err := s.store.ListUsers(role, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (s *Server) handleAdminDecideUser(c *gin.Context) {
	var uri idParam
	if !bindURI(c, &uri) {
		return
	}
	var req decisionRequest
	if !bindJSON(c, &req, decisionMessages, "") {
		return
	}
	if req.Decision != db.StatusActive && req.Decision != db.StatusRejected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "decision must be active or rejected"})
		return
	}
	user, err := s.store.UserByID(uri.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if user.Status != db.StatusPending {
		c.JSON(http.StatusConflict, gin.H{"error": "user has already been decided"})
		return
	}
	user.Status = req.Decision
	if err := s.store.UpdateUser(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}
	log.Printf("user decided user_id=%d decision=%s", user.ID, req.Decision)
	s.recordEvent("user_decided", EventPayload{UserID: user.ID, Decision: req.Decision})
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleAdminListMemberships(c *gin.Context) {
	var uri idParam
	if !bindURI(c, &uri) {
		return
	}
	status := c.DefaultQuery("status", db.StatusPending)
	memberships, err := s.store.ListMemberships(uri.ID, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list memberships"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"memberships": memberships})
}

func (s *Server) handleAdminDecideMembership(c *gin.Context) {
	var uri idParam
	if !bindURI(c, &uri) {
		return
	}
	var req decisionRequest
	if !bindJSON(c, &req, decisionMessages, "") {
		return
	}
	if req.Decision != db.StatusAdmitted && req.Decision != db.StatusRejected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "decision must be admitted or rejected"})
		return
	}
	membership, err := s.store.MembershipByID(uri.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "membership not found"})
		return
	}
	if membership.Status != db.StatusPending {
		c.JSON(http.StatusConflict, gin.H{"error": "membership has already been decided"})
		return
	}
	membership.Status = req.Decision
	if err := s.store.UpdateMembership(membership); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update membership"})
		return
	}
	log.Printf("membership decided membership_id=%d decision=%s", membership.ID, req.Decision)
	s.recordEvent("membership_decided", EventPayload{
		MembershipID: membership.ID,
		ContestID:    membership.ContestID,
		UserID:       membership.UserID,
		Decision:     req.Decision,
	})
	c.JSON(http.StatusOK, membership)
}

func (s *Server) handleAdminListPhotos(c *gin.Context) {
	var uri idParam
	if !bindURI(c, &uri) {
		return
	}
	status := c.DefaultQuery("status", db.StatusPending)
	photos, err := s.store.ListContestPhotos(uri.ID, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list photos"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"photos": photos})
}

func (s *Server) handleAdminDecidePhoto(c *gin.Context) {
	var uri idParam
	if !bindURI(c, &uri) {
		return
	}
	var req decisionRequest
	if !bindJSON(c, &req, decisionMessages, "") {
		return
	}
	if req.Decision != db.StatusApproved && req.Decision != db.StatusRejected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "decision must be approved or rejected"})
		return
	}
	photo, err := s.store.PhotoByID(uri.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "photo not found"})
		return
	}
	if photo.Status != db.StatusPending {
		c.JSON(http.StatusConflict, gin.H{"error": "photo has already been decided"})
		return
	}
	photo.Status = req.Decision
	if err := s.store.UpdatePhoto(photo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update photo"})
		return
	}
	log.Printf("photo decided photo_id=%d decision=%s", photo.ID, req.Decision)
	s.recordEvent("photo_decided", EventPayload{
		PhotoID:   photo.ID,
		ContestID: photo.ContestID,
		Decision:  req.Decision,
	})
	s.notifyChange(collectionPhotos, "update", photo)
	c.JSON(http.StatusOK, photo)
}

func (s *Server) handleAdminListEvents(c *gin.Context) {
	page, perPage := parsePagination(c, 50, 200)
	events, total, err := s.store.ListEvents((page-1)*perPage, perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"events":     events,
		"pagination": buildPaginationData(page, perPage, total),
	})
}
