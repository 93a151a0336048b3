package company

import (
	"context"
	"errors"
	"fmt"
	"time"

	"niveshx-api/internal/logger"
	"niveshx-api/internal/mailer"
	"niveshx-api/internal/store"
	"niveshx-api/internal/validate"

	"github.com/google/uuid"
)

var (
	ErrContactEmailRequired = errors.New("contact email is required")
	ErrCompanyExists        = errors.New("a company with this contact email already exists")
	ErrOwnerNotFound        = errors.New("owner account not found")
)

type Input struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contactEmail"`
	Website      string `json:"website"`
	Sector       string `json:"sector"`
	Stage        string `json:"stage"`
	Description  string `json:"description"`
}

// CodeStore issues and spends emailed one-time codes.
type CodeStore interface {
	Issue(ctx context.Context, key string, ttl time.Duration) (string, error)
	Verify(ctx context.Context, key, code string) error
}

type RateLimiter interface {
	Allow(ctx context.Context, id string) (bool, error)
	Reset(ctx context.Context, id string) error
}

type Config struct {
	OTPTTL time.Duration
}

type Deps struct {
	Store         store.Store
	Codes         CodeStore
	SendLimiter   RateLimiter
	VerifyLimiter RateLimiter
	Mailer        mailer.Mailer
}

type Service struct {
	store         store.Store
	codes         CodeStore
	sendLimiter   RateLimiter
	verifyLimiter RateLimiter
	mailer        mailer.Mailer
	cfg           Config

	now   func() time.Time
	newID func() string
}

func NewService(deps Deps, cfg Config) *Service {
	return &Service{
		store:         deps.Store,
		codes:         deps.Codes,
		sendLimiter:   deps.SendLimiter,
		verifyLimiter: deps.VerifyLimiter,
		mailer:        deps.Mailer,
		cfg:           cfg,
		now:           time.Now,
		newID:         func() string { return uuid.NewString() },
	}
}

// Check reports whether a company already uses contactEmail.
func (s *Service) Check(ctx context.Context, contactEmail string) (bool, error) {
	contactEmail = validate.NormalizeEmail(contactEmail)
	if contactEmail == "" {
		return false, ErrContactEmailRequired
	}

	exists, err := s.store.Exists(ctx, store.Companies, "contactEmail", contactEmail)
	if err != nil {
		return false, fmt.Errorf("check companies: %w", err)
	}
	return exists, nil
}

// Register records a company owned by ownerID and links it to the owner's
// profile. New companies start unverified.
func (s *Service) Register(ctx context.Context, ownerID string, in Input) (*store.Record, error) {
	if err := validate.Required("name", in.Name, "contactEmail", in.ContactEmail); err != nil {
		return nil, err
	}
	contactEmail := validate.NormalizeEmail(in.ContactEmail)

	_, err := s.store.Get(ctx, store.Users, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrOwnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get owner %s: %w", ownerID, err)
	}

	exists, err := s.Check(ctx, contactEmail)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrCompanyExists
	}

	id := s.newID()
	doc := store.Document{
		"name":         in.Name,
		"contactEmail": contactEmail,
		"ownerId":      ownerID,
		"isVerified":   false,
		"createdAt":    s.now().UnixMilli(),
	}
	optional := map[string]string{
		"website":     in.Website,
		"sector":      in.Sector,
		"stage":       in.Stage,
		"description": in.Description,
	}
	for k, v := range optional {
		if v != "" {
			doc[k] = v
		}
	}

	if err := s.store.Set(ctx, store.Companies, id, doc); err != nil {
		return nil, fmt.Errorf("store company: %w", err)
	}
	if err := s.store.Update(ctx, store.Users, ownerID, store.Document{"companyId": id}); err != nil {
		return nil, fmt.Errorf("link company to owner: %w", err)
	}

	logger.Info("company registered", map[string]any{
		"company_id": id,
		"owner_id":   ownerID,
	})
	return &store.Record{ID: id, Data: doc}, nil
}
