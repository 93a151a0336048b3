package account

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"niveshx-api/internal/auth/credentials"
	"niveshx-api/internal/logger"
	"niveshx-api/internal/mailer"
	"niveshx-api/internal/store"
	"niveshx-api/internal/utils"
	"niveshx-api/internal/validate"
)

const resetTokenBytes = 32

// ForgotPassword emails a reset link to email if it belongs to an
// account. Unknown emails succeed without doing anything.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = validate.NormalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}

	rec, err := s.store.FindOne(ctx, store.Users, "email", email)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}

	token, err := utils.RandomHex(resetTokenBytes)
	if err != nil {
		return err
	}

	fields := store.Document{
		"resetPasswordToken":   credentials.HashToken(token),
		"resetPasswordExpires": s.now().Add(s.cfg.ResetTTL).UnixMilli(),
	}
	err = s.store.Update(ctx, Credentials, rec.ID, fields)
	if errors.Is(err, store.ErrNotFound) {
		err = s.store.Set(ctx, Credentials, rec.ID, fields)
	}
	if err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	resetURL := strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
	msg, err := mailer.ResetMessage(email, resetURL, s.cfg.ResetTTL)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}

	logger.Info("password reset requested", map[string]any{"account_id": rec.ID})
	return nil
}

// ResetPassword replaces the password of the account holding token and
// consumes the token.
func (s *Service) ResetPassword(ctx context.Context, token, password string) error {
	if err := validate.Required("token", token, "password", password); err != nil {
		return err
	}

	rec, err := s.store.FindOne(ctx, Credentials, "resetPasswordToken", credentials.HashToken(token))
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return fmt.Errorf("find reset token: %w", err)
	}
	if rec.Data.Int64("resetPasswordExpires") <= s.nowMillis() {
		return ErrInvalidResetToken
	}

	hash, err := credentials.HashPassword(password)
	if err != nil {
		return err
	}

	err = s.store.Update(ctx, Credentials, rec.ID, store.Document{
		"passwordHash":         hash,
		"resetPasswordToken":   nil,
		"resetPasswordExpires": nil,
	})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	logger.Info("password reset", map[string]any{"account_id": rec.ID})
	return nil
}
