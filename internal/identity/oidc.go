package identity

import (
	"context"
	"errors"

	"github.com/coreos/go-oidc/v3/oidc"
)

// SubjectResolver maps an OIDC subject to a local account id. It returns
// an empty id when no account is linked to the subject.
type SubjectResolver interface {
	AccountIDForSubject(ctx context.Context, provider, subject string) (string, error)
}

// OIDCVerifier accepts ID tokens minted by an external OpenID provider.
type OIDCVerifier struct {
	provider string
	verifier *oidc.IDTokenVerifier
	accounts SubjectResolver
}

func NewOIDCVerifier(provider string, verifier *oidc.IDTokenVerifier, accounts SubjectResolver) *OIDCVerifier {
	return &OIDCVerifier{
		provider: provider,
		verifier: verifier,
		accounts: accounts,
	}
}

func (v *OIDCVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if v.verifier == nil {
		return nil, newError(KindUnavailable, errors.New("oidc verifier not configured"))
	}

	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		var expired *oidc.TokenExpiredError
		switch {
		case errors.As(err, &expired):
			return nil, newError(KindExpired, err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, newError(KindUnavailable, err)
		default:
			return nil, newError(KindInvalid, err)
		}
	}

	var claims struct {
		Subject string `json:"sub"`
		Email   string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, newError(KindInvalid, err)
	}
	if claims.Subject == "" {
		return nil, newError(KindInvalid, errors.New("id token missing sub"))
	}

	accountID, err := v.accounts.AccountIDForSubject(ctx, v.provider, claims.Subject)
	if err != nil {
		return nil, newError(KindUnavailable, err)
	}
	if accountID == "" {
		return nil, newError(KindInvalid, errors.New("subject not linked to an account"))
	}

	return &Identity{
		AccountID: accountID,
		Email:     claims.Email,
	}, nil
}

var _ Verifier = (*OIDCVerifier)(nil)
