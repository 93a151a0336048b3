package resolver

import (
	"context"

	"niveshx-api/internal/auth"
)

// Resolver determines which account an external identity belongs to,
// creating or linking one when needed. It is the only place where
// identity-to-account mapping happens.
type Resolver interface {
	Resolve(
		ctx context.Context,
		identity *auth.Identity,
	) (accountID string, err error)
}
