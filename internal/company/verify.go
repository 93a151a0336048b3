package company

import (
	"context"
	"errors"
	"fmt"

	"niveshx-api/internal/logger"
	"niveshx-api/internal/mailer"
	"niveshx-api/internal/otp"
	"niveshx-api/internal/store"
	"niveshx-api/internal/validate"
)

var (
	ErrCompanyNotFound        = errors.New("company not found")
	ErrNotCompanyOwner        = errors.New("company belongs to another account")
	ErrCompanyAlreadyVerified = errors.New("company is already verified")
	ErrInvalidOTP             = errors.New("company otp is incorrect or has expired")
	ErrTooManyAttempts        = errors.New("too many company verification attempts")
)

// codeKey scopes company codes away from signup codes, which are keyed
// by email in the same store.
func codeKey(companyID string) string {
	return "company:" + companyID
}

// owned loads companyID and checks that ownerID registered it.
func (s *Service) owned(ctx context.Context, ownerID, companyID string) (store.Document, error) {
	doc, err := s.store.Get(ctx, store.Companies, companyID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrCompanyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get company %s: %w", companyID, err)
	}
	if doc.String("ownerId") != ownerID {
		return nil, ErrNotCompanyOwner
	}
	return doc, nil
}

// SendVerification emails a fresh code to the company's contact address.
// Any earlier code for the company stops working.
func (s *Service) SendVerification(ctx context.Context, ownerID, companyID string) error {
	if err := validate.Required("companyId", companyID); err != nil {
		return err
	}

	doc, err := s.owned(ctx, ownerID, companyID)
	if err != nil {
		return err
	}
	if doc.Bool("isVerified") {
		return ErrCompanyAlreadyVerified
	}
	contactEmail := doc.String("contactEmail")
	if contactEmail == "" {
		return ErrContactEmailRequired
	}

	ok, err := s.sendLimiter.Allow(ctx, companyID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTooManyAttempts
	}

	code, err := s.codes.Issue(ctx, codeKey(companyID), s.cfg.OTPTTL)
	if err != nil {
		return fmt.Errorf("issue company otp: %w", err)
	}
	msg, err := mailer.CompanyOTPMessage(contactEmail, doc.String("name"), code, s.cfg.OTPTTL)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send company otp email: %w", err)
	}

	logger.Info("company verification sent", map[string]any{
		"company_id": companyID,
		"owner_id":   ownerID,
	})
	return nil
}

// Verify marks the company verified when code matches the last one sent.
// It reports whether the company was already verified beforehand.
func (s *Service) Verify(ctx context.Context, ownerID, companyID, code string) (bool, error) {
	if err := validate.Required("companyId", companyID, "otp", code); err != nil {
		return false, err
	}

	doc, err := s.owned(ctx, ownerID, companyID)
	if err != nil {
		return false, err
	}
	if doc.Bool("isVerified") {
		return true, nil
	}

	ok, err := s.verifyLimiter.Allow(ctx, companyID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrTooManyAttempts
	}

	if err := s.codes.Verify(ctx, codeKey(companyID), code); err != nil {
		if errors.Is(err, otp.ErrCodeExpired) || errors.Is(err, otp.ErrCodeMismatch) {
			return false, ErrInvalidOTP
		}
		return false, err
	}

	now := s.now().UnixMilli()
	if err := s.store.Update(ctx, store.Companies, companyID, store.Document{
		"isVerified": true,
		"verifiedAt": now,
		"updatedAt":  now,
	}); err != nil {
		return false, fmt.Errorf("mark company verified: %w", err)
	}

	if err := s.verifyLimiter.Reset(ctx, companyID); err != nil {
		logger.Warn("failed to reset company otp limiter", map[string]any{"company_id": companyID, "error": err})
	}

	logger.Info("company verified", map[string]any{
		"company_id": companyID,
		"owner_id":   ownerID,
	})
	return false, nil
}
