package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"niveshx-api/internal/auth"
	"niveshx-api/internal/logger"
	"niveshx-api/internal/store"
	"niveshx-api/internal/validate"

	"github.com/google/uuid"
)

// ErrUnverifiedEmailInUse is returned when an external identity claims
// the email of an existing account but the provider has not verified it.
var ErrUnverifiedEmailInUse = errors.New("email belongs to an existing account and is not verified by the provider")

// Identities links provider subjects to accounts. Documents are keyed by
// "<provider>:<subject>" and hold the accountId.
const Identities = "identities"

// StoreResolver resolves identities against the document store.
type StoreResolver struct {
	store store.Store
	now   func() time.Time
	newID func() string
}

func NewStoreResolver(s store.Store) *StoreResolver {
	return &StoreResolver{
		store: s,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

func identityKey(provider, subject string) string {
	return provider + ":" + subject
}

func (r *StoreResolver) Resolve(
	ctx context.Context,
	identity *auth.Identity,
) (string, error) {

	if identity == nil {
		return "", errors.New("identity is nil")
	}

	// 1. Known provider subject
	accountID, err := r.AccountIDForSubject(ctx, identity.Provider, identity.ProviderUserID)
	if err != nil {
		return "", err
	}
	if accountID != "" {
		return accountID, nil
	}

	email := validate.NormalizeEmail(identity.Email)

	// 2. Existing account with the same email, new provider
	rec, err := r.store.FindOne(ctx, store.Users, "email", email)
	switch {
	case err == nil:
		// only a provider-verified email may claim an existing account
		if !identity.EmailVerified {
			logger.Warn("refused to link unverified external email", map[string]any{
				"provider":   identity.Provider,
				"account_id": rec.ID,
			})
			return "", ErrUnverifiedEmailInUse
		}
		accountID = rec.ID
	case errors.Is(err, store.ErrNotFound):
		// 3. New account
		accountID = r.newID()
		profile := store.Document{
			"email":      email,
			"isVerified": identity.EmailVerified,
			"createdAt":  r.now().UnixMilli(),
		}
		if identity.Name != "" {
			profile["fullName"] = identity.Name
		}
		if err := r.store.Set(ctx, store.Users, accountID, profile); err != nil {
			return "", fmt.Errorf("create user: %w", err)
		}
		logger.Info("account created from external identity", map[string]any{
			"provider":   identity.Provider,
			"account_id": accountID,
		})
	default:
		return "", fmt.Errorf("find user by email: %w", err)
	}

	// 4. Identity mapping
	err = r.store.Set(ctx, Identities, identityKey(identity.Provider, identity.ProviderUserID), store.Document{
		"accountId": accountID,
		"provider":  identity.Provider,
		"linkedAt":  r.now().UnixMilli(),
	})
	if err != nil {
		return "", fmt.Errorf("link identity: %w", err)
	}

	return accountID, nil
}

// AccountIDForSubject returns the account linked to provider/subject, or
// "" when none is.
func (r *StoreResolver) AccountIDForSubject(ctx context.Context, provider, subject string) (string, error) {
	doc, err := r.store.Get(ctx, Identities, identityKey(provider, subject))
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup identity: %w", err)
	}
	return doc.String("accountId"), nil
}
