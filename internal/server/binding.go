package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindMessages maps struct field -> validator tag -> client-facing message.
type bindMessages map[string]map[string]string

func (m bindMessages) resolve(err error, fallback string) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, verr := range verrs {
			if msg, ok := m[verr.Field()][verr.Tag()]; ok {
				return msg
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	return "invalid request"
}

func bindJSON(c *gin.Context, req any, messages bindMessages, fallback string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": messages.resolve(err, fallback)})
		return false
	}
	return true
}

func bindURI(c *gin.Context, req any) bool {
	if err := c.ShouldBindUri(req); err != nil {
		c.Status(http.StatusNotFound)
		return false
	}
	return true
}
