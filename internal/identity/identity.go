// Package identity verifies bearer tokens presented by clients.
//
// Verifiers report failures with a closed set of kinds so callers can tell
// an expired token, which the client may refresh, from a token that will
// never verify and from a verifier that could not be reached.
package identity

import (
	"context"
	"errors"
	"fmt"
)

// Identity is the decoded, verified content of a bearer token.
type Identity struct {
	AccountID string
	Email     string
	UserType  string
}

// Verifier checks a raw bearer token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type Kind int

const (
	// KindUnavailable: the token could not be checked at all.
	KindUnavailable Kind = iota
	// KindInvalid: malformed, wrongly signed, or otherwise rejected.
	KindInvalid
	// KindExpired: well formed and correctly signed, but past its expiry.
	KindExpired
)

func (k Kind) String() string {
	switch k {
	case KindExpired:
		return "expired"
	case KindInvalid:
		return "invalid"
	default:
		return "unavailable"
	}
}

// VerifyError is the only error type a Verifier returns.
type VerifyError struct {
	Kind Kind
	Err  error
}

func (e *VerifyError) Error() string {
	if e.Err == nil {
		return "token " + e.Kind.String()
	}
	return fmt.Sprintf("token %s: %v", e.Kind, e.Err)
}

func (e *VerifyError) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error) *VerifyError {
	return &VerifyError{Kind: kind, Err: err}
}

// KindOf extracts the failure kind. Errors that did not come from a
// Verifier are treated as KindUnavailable.
func KindOf(err error) Kind {
	var verr *VerifyError
	if errors.As(err, &verr) {
		return verr.Kind
	}
	return KindUnavailable
}
