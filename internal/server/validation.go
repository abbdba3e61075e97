package server

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"caza-fotos/internal/db"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	maxDisplayNameLength = 64
	minPasswordLength    = 8
	maxPasswordLength    = 72
	maxTitleLength       = 140
	maxDescriptionLength = 2000
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("decision", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case db.StatusActive, db.StatusRejected, db.StatusAdmitted, db.StatusApproved:
				return true
			}
			return false
		})
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) (string, error) {
	email = normalizeEmail(email)
	if email == "" {
		return "", errors.New("email is required")
	}
	if len(email) > 255 || !emailPattern.MatchString(email) {
		return "", errors.New("email is not valid")
	}
	return email, nil
}

func validateDisplayName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("display name is required")
	}
	if len(name) > maxDisplayNameLength {
		return "", errors.New("display name is too long")
	}
	return name, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	if len(password) > maxPasswordLength {
		return errors.New("password is too long")
	}
	return nil
}

// validateRole covers the roles a user may pick at registration. Admin
// accounts are provisioned out of band.
func validateRole(role string) (string, error) {
	role = strings.TrimSpace(strings.ToLower(role))
	if role == "" {
		return db.RoleGeneral, nil
	}
	if role != db.RoleGeneral && role != db.RoleParticipant {
		return "", errors.New("role must be general or participant")
	}
	return role, nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", errors.New("title is required")
	}
	if len(title) > maxTitleLength {
		return "", errors.New("title is too long")
	}
	return title, nil
}
