package identity

import (
	"context"
	"errors"
)

// Chain tries each verifier in order and returns the first success. When
// all fail, the error with the most specific kind wins: an expired token
// is reported over an invalid one, and an invalid one over an unreachable
// verifier.
type Chain []Verifier

func (c Chain) Verify(ctx context.Context, token string) (*Identity, error) {
	if len(c) == 0 {
		return nil, newError(KindUnavailable, errors.New("no verifiers configured"))
	}

	var best error
	for _, v := range c {
		id, err := v.Verify(ctx, token)
		if err == nil {
			return id, nil
		}
		if best == nil || KindOf(err) > KindOf(best) {
			best = err
		}
	}

	var verr *VerifyError
	if errors.As(best, &verr) {
		return nil, verr
	}
	return nil, newError(KindUnavailable, best)
}

var _ Verifier = Chain(nil)
