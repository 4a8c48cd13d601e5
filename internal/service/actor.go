package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-cashbook-api/pkg/dateutil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actor is the authenticated user a call is made on behalf of. Every
// tenant-scoped service method filters on CompanyID.
type Actor struct {
	UserID    uuid.UUID
	CompanyID uuid.UUID
	Name      string
	Email     string
}

// audit is the value written to created_by / updated_by / deleted_by
func (a Actor) audit() string {
	return a.UserID.String()
}

func (a Actor) wsUser() map[string]interface{} {
	return map[string]interface{}{
		"id":    a.UserID,
		"name":  a.Name,
		"email": a.Email,
	}
}

var ErrInvalidID = errors.New("invalid id")

// optionalID parses an optional uuid reference; empty means none
func optionalID(field string, s *string) (*uuid.UUID, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*s))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, field)
	}
	return &id, nil
}

// notFound converts gorm's missing-row error to sentinel
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// today is the current date at midnight in loc
func today(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return dateutil.Midnight(time.Now().In(loc))
}
