package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"niveshx-api/internal/auth/credentials"
	"niveshx-api/internal/identity"
	"niveshx-api/internal/store"
	"niveshx-api/internal/validate"
)

type Session struct {
	AccountID string
	Token     string
	ExpiresAt time.Time
}

// Login checks email and password and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if err := validate.Required("email", email, "password", password); err != nil {
		return nil, err
	}
	email = validate.NormalizeEmail(email)

	rec, err := s.store.FindOne(ctx, store.Users, "email", email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, s.pendingLoginError(ctx, email, password)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	creds, err := s.store.Get(ctx, Credentials, rec.ID)
	if errors.Is(err, store.ErrNotFound) {
		// accounts created through social sign-in have no password
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	if err := credentials.VerifyPassword(creds.String("passwordHash"), password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !rec.Data.Bool("isVerified") {
		return nil, ErrNotVerified
	}

	return s.IssueSession(rec.ID, rec.Data)
}

// IssueSession mints a bearer token for an account profile.
func (s *Service) IssueSession(accountID string, profile store.Document) (*Session, error) {
	token, exp, err := s.tokens.Issue(identity.Identity{
		AccountID: accountID,
		Email:     profile.String("email"),
		UserType:  profile.String("userType"),
	})
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{AccountID: accountID, Token: token, ExpiresAt: exp}, nil
}

// pendingLoginError tells a signup that has not confirmed its email apart
// from a wrong password, but only once the password matches.
func (s *Service) pendingLoginError(ctx context.Context, email, password string) error {
	pending, err := s.store.Get(ctx, store.PendingUsers, email)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("load pending signup: %w", err)
	}
	if credentials.VerifyPassword(pending.String("password"), password) != nil {
		return ErrInvalidCredentials
	}
	return ErrNotVerified
}
