// README: User service answers contact lookups between drivers and passengers.
package user

import (
	"context"
	"errors"
	"strings"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/apperr"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/logger"
)

type Service struct {
	store *Store
	log   logger.Logger
}

func NewService(store *Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{store: store, log: log}
}

// Phone returns the phone number on a profile. The uid takes precedence over user_id.
func (s *Service) Phone(ctx context.Context, q PhoneQuery) (string, error) {
	uid, userID := strings.TrimSpace(q.UID), strings.TrimSpace(q.UserID)

	var (
		p   *Profile
		err error
	)
	switch {
	case uid != "":
		p, err = s.store.Get(ctx, uid)
	case userID != "":
		p, err = s.store.FindByUserID(ctx, userID)
	default:
		return "", apperr.Validation("firebase_uid or user_id is required")
	}
	if errors.Is(err, ErrNotFound) {
		return "", apperr.NotFound("User not found")
	}
	if err != nil {
		return "", err
	}
	if p.Phone == "" {
		return "", apperr.NotFound("Phone number not found for this user")
	}
	s.log.Debug("phone lookup", "uid", p.UID)
	return p.Phone, nil
}
