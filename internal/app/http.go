package app

import (
	"context"

	"niveshx-api/internal/account"
	"niveshx-api/internal/auth/handler"
	"niveshx-api/internal/auth/provider"
	"niveshx-api/internal/auth/provider/oidc"
	"niveshx-api/internal/auth/resolver"
	"niveshx-api/internal/company"
	"niveshx-api/internal/config"
	"niveshx-api/internal/identity"
	"niveshx-api/internal/logger"
	"niveshx-api/internal/middleware"
	"niveshx-api/internal/otp"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	issuer, err := identity.NewJWTIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	identityResolver := resolver.NewStoreResolver(infra.Store)

	verifiers := identity.Chain{issuer}
	var providers []provider.OAuthProvider

	if cfg.OIDCEnabled() {
		oidcProvider, err := oidc.New(ctx, oidc.Config{
			Name:         cfg.OIDCName,
			Issuer:       cfg.OIDCIssuer,
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			RedirectURL:  cfg.OIDCRedirectURL,
		})
		if err != nil {
			_ = infra.Close()
			return nil, nil, err
		}
		providers = append(providers, oidcProvider)
		verifiers = append(verifiers, identity.NewOIDCVerifier(
			oidcProvider.Name(),
			oidcProvider.Verifier(),
			identityResolver,
		))
		logger.Info("oidc sign-in enabled", map[string]any{
			"provider": cfg.OIDCName,
			"issuer":   cfg.OIDCIssuer,
		})
	}

	codes := otp.NewStore(infra.Redis.Client)

	accounts := account.NewService(account.Deps{
		Store:         infra.Store,
		Codes:         codes,
		VerifyLimiter: otp.NewLimiter(infra.Redis.Client, "verify-otp", cfg.RateLimitAttempts, cfg.RateLimitWindow),
		ResendLimiter: otp.NewLimiter(infra.Redis.Client, "resend-otp", cfg.RateLimitAttempts, cfg.RateLimitWindow),
		Mailer:        infra.Mailer,
		Tokens:        issuer,
	}, account.Config{
		OTPTTL:        cfg.OTPTTL,
		ResetTTL:      cfg.ResetTTL,
		PublicBaseURL: cfg.PublicBaseURL,
	})

	companies := company.NewService(company.Deps{
		Store:         infra.Store,
		Codes:         codes,
		SendLimiter:   otp.NewLimiter(infra.Redis.Client, "company-send", cfg.RateLimitAttempts, cfg.RateLimitWindow),
		VerifyLimiter: otp.NewLimiter(infra.Redis.Client, "company-verify", cfg.RateLimitAttempts, cfg.RateLimitWindow),
		Mailer:        infra.Mailer,
	}, company.Config{
		OTPTTL: cfg.OTPTTL,
	})

	apiHandler := handler.NewHandler(handler.Deps{
		Accounts:  accounts,
		Companies: companies,
		Providers: provider.NewRegistry(providers...),
		Resolver:  identityResolver,
		Verifier:  verifiers,
	})

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	apiHandler.RegisterRoutes(router)

	return router, infra.Close, nil
}
