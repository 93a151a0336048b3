package account

import (
	"context"
	"errors"
	"fmt"

	"niveshx-api/internal/auth/credentials"
	"niveshx-api/internal/logger"
	"niveshx-api/internal/mailer"
	"niveshx-api/internal/otp"
	"niveshx-api/internal/store"
	"niveshx-api/internal/validate"
)

type RegisterInput struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	UserType        string `json:"userType"`
	CompanyName     string `json:"companyName"`
	CompanyEmail    string `json:"companyEmail"`
	PhoneNumber     string `json:"phoneNumber"`
	LinkedInProfile string `json:"linkedinProfile"`
}

// profileFields are copied from the pending signup onto the account.
var profileFields = []string{
	"fullName", "userType", "companyName", "companyEmail", "phoneNumber", "linkedinProfile",
}

// Register starts a signup: it records the pending account and emails a
// verification code. Nothing is written to users until VerifyOTP.
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	err := validate.Required(
		"fullName", in.FullName,
		"email", in.Email,
		"password", in.Password,
		"userType", in.UserType,
	)
	if err != nil {
		return err
	}
	if !validUserType(in.UserType) {
		return ErrInvalidUserType
	}
	if in.UserType == UserTypeCompany {
		err := validate.Required(
			"companyName", in.CompanyName,
			"companyEmail", in.CompanyEmail,
		)
		if err != nil {
			return err
		}
	}

	email := validate.NormalizeEmail(in.Email)

	exists, err := s.store.Exists(ctx, store.Users, "email", email)
	if err != nil {
		return fmt.Errorf("check users: %w", err)
	}
	if exists {
		return ErrAlreadyRegistered
	}

	hash, err := credentials.HashPassword(in.Password)
	if err != nil {
		return err
	}

	pending := store.Document{
		"email":         email,
		"fullName":      in.FullName,
		"userType":      in.UserType,
		"password":      hash,
		"emailVerified": false,
		"createdAt":     s.nowMillis(),
	}
	if in.CompanyName != "" {
		pending["companyName"] = in.CompanyName
	}
	if in.CompanyEmail != "" {
		pending["companyEmail"] = validate.NormalizeEmail(in.CompanyEmail)
	}
	if in.PhoneNumber != "" {
		pending["phoneNumber"] = in.PhoneNumber
	}
	if in.LinkedInProfile != "" {
		pending["linkedinProfile"] = in.LinkedInProfile
	}

	if err := s.store.Set(ctx, store.PendingUsers, email, pending); err != nil {
		return fmt.Errorf("store pending signup: %w", err)
	}

	if err := s.sendCode(ctx, email, in.FullName); err != nil {
		return err
	}

	logger.Info("signup started", map[string]any{
		"email":     email,
		"user_type": in.UserType,
	})
	return nil
}

// VerifyOTP confirms a pending signup with its emailed code and promotes
// it to an account. It returns the new account id.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	if err := validate.Required("email", email, "otp", code); err != nil {
		return "", err
	}
	email = validate.NormalizeEmail(email)

	ok, err := s.verifyLimiter.Allow(ctx, email)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrTooManyAttempts
	}

	// a matching code is spent here, so concurrent submissions of the same
	// code cannot both promote the signup
	if err := s.codes.Verify(ctx, email, code); err != nil {
		if errors.Is(err, otp.ErrCodeExpired) || errors.Is(err, otp.ErrCodeMismatch) {
			return "", ErrInvalidOTP
		}
		return "", err
	}

	pending, err := s.store.Get(ctx, store.PendingUsers, email)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrPendingNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load pending signup: %w", err)
	}

	exists, err := s.store.Exists(ctx, store.Users, "email", email)
	if err != nil {
		return "", fmt.Errorf("check users: %w", err)
	}
	if exists {
		return "", ErrAlreadyRegistered
	}

	accountID := s.newID()
	profile := store.Document{
		"email":      email,
		"isVerified": true,
		"createdAt":  s.nowMillis(),
	}
	for _, f := range profileFields {
		if v, ok := pending[f]; ok {
			profile[f] = v
		}
	}

	if err := s.store.Set(ctx, Credentials, accountID, store.Document{
		"passwordHash": pending.String("password"),
	}); err != nil {
		return "", fmt.Errorf("store credentials: %w", err)
	}
	if err := s.store.Set(ctx, store.Users, accountID, profile); err != nil {
		return "", fmt.Errorf("store user: %w", err)
	}
	if err := s.store.Delete(ctx, store.PendingUsers, email); err != nil {
		return "", fmt.Errorf("delete pending signup: %w", err)
	}

	if err := s.verifyLimiter.Reset(ctx, email); err != nil {
		logger.Warn("failed to reset otp limiter", map[string]any{"email": email, "error": err})
	}

	logger.Info("signup verified", map[string]any{
		"email":      email,
		"account_id": accountID,
	})
	return accountID, nil
}

// ResendOTP sends a new code for a pending signup. Unknown emails succeed
// silently so the endpoint does not reveal which emails have accounts.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	email = validate.NormalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}

	ok, err := s.resendLimiter.Allow(ctx, email)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTooManyAttempts
	}

	pending, err := s.store.Get(ctx, store.PendingUsers, email)
	if errors.Is(err, store.ErrNotFound) {
		exists, err := s.store.Exists(ctx, store.Users, "email", email)
		if err != nil {
			return fmt.Errorf("check users: %w", err)
		}
		if exists {
			return ErrAlreadyVerified
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("load pending signup: %w", err)
	}

	return s.sendCode(ctx, email, pending.String("fullName"))
}

func (s *Service) sendCode(ctx context.Context, email, name string) error {
	code, err := s.codes.Issue(ctx, email, s.cfg.OTPTTL)
	if err != nil {
		return fmt.Errorf("issue otp: %w", err)
	}

	msg, err := mailer.OTPMessage(email, name, code, s.cfg.OTPTTL)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}
	return nil
}
