// Package account implements signup, verification, login, password reset
// and profile lookup over the document store.
//
// Unconfirmed signups live in the pending_users collection keyed by email.
// Confirmed accounts live in users keyed by a generated id, with their
// secrets split out into credentials under the same id so a profile can be
// returned to its owner unmodified.
package account

import (
	"context"
	"errors"
	"time"

	"niveshx-api/internal/identity"
	"niveshx-api/internal/mailer"
	"niveshx-api/internal/store"

	"github.com/google/uuid"
)

// Credentials is the collection holding password and reset-token hashes,
// keyed by account id.
const Credentials = "credentials"

var (
	ErrEmailRequired      = errors.New("email is required")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyRegistered  = errors.New("user with this email already exists")
	ErrInvalidUserType    = errors.New("invalid user type")
	ErrInvalidOTP         = errors.New("the otp is incorrect or has expired")
	ErrPendingNotFound    = errors.New("no pending signup for this email")
	ErrAlreadyVerified    = errors.New("account is already verified")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
	ErrInvalidResetToken  = errors.New("invalid or expired password reset token")
)

const (
	UserTypeInvestor    = "investor"
	UserTypeCompany     = "company"
	UserTypeShareholder = "shareholder"
)

// CodeStore issues and checks emailed one-time codes. Verify spends a
// matching code: only one caller can succeed with it.
type CodeStore interface {
	Issue(ctx context.Context, email string, ttl time.Duration) (string, error)
	Verify(ctx context.Context, email, code string) error
}

type RateLimiter interface {
	Allow(ctx context.Context, id string) (bool, error)
	Reset(ctx context.Context, id string) error
}

type TokenIssuer interface {
	Issue(id identity.Identity) (string, time.Time, error)
}

type Config struct {
	OTPTTL        time.Duration
	ResetTTL      time.Duration
	PublicBaseURL string
}

type Deps struct {
	Store         store.Store
	Codes         CodeStore
	VerifyLimiter RateLimiter
	ResendLimiter RateLimiter
	Mailer        mailer.Mailer
	Tokens        TokenIssuer
}

type Service struct {
	store         store.Store
	codes         CodeStore
	verifyLimiter RateLimiter
	resendLimiter RateLimiter
	mailer        mailer.Mailer
	tokens        TokenIssuer
	cfg           Config

	now   func() time.Time
	newID func() string
}

func NewService(deps Deps, cfg Config) *Service {
	return &Service{
		store:         deps.Store,
		codes:         deps.Codes,
		verifyLimiter: deps.VerifyLimiter,
		resendLimiter: deps.ResendLimiter,
		mailer:        deps.Mailer,
		tokens:        deps.Tokens,
		cfg:           cfg,
		now:           time.Now,
		newID:         func() string { return uuid.NewString() },
	}
}

func (s *Service) nowMillis() int64 {
	return s.now().UnixMilli()
}

func validUserType(t string) bool {
	switch t {
	case UserTypeInvestor, UserTypeCompany, UserTypeShareholder:
		return true
	}
	return false
}
