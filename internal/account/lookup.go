package account

import (
	"context"
	"errors"
	"fmt"

	"niveshx-api/internal/store"
	"niveshx-api/internal/validate"
)

// CheckEmail reports whether email already belongs to a pending signup or
// a confirmed account. Pending signups are keyed by email, so that point
// lookup runs first and short-circuits the field query on users.
//
// If both collections hold a record for the same email the first match
// wins; uniqueness across them is assumed, not enforced here.
func (s *Service) CheckEmail(ctx context.Context, email string) (bool, error) {
	email = validate.NormalizeEmail(email)
	if email == "" {
		return false, ErrEmailRequired
	}

	_, err := s.store.Get(ctx, store.PendingUsers, email)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("check pending signup: %w", err)
	}

	exists, err := s.store.Exists(ctx, store.Users, "email", email)
	if err != nil {
		return false, fmt.Errorf("check users: %w", err)
	}
	return exists, nil
}

// GetUser returns the stored profile for accountID as-is.
func (s *Service) GetUser(ctx context.Context, accountID string) (store.Document, error) {
	if accountID == "" {
		return nil, ErrUserNotFound
	}

	doc, err := s.store.Get(ctx, store.Users, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", accountID, err)
	}
	return doc, nil
}
