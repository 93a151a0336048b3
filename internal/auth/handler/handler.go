package handler

import (
	"net/http"

	"niveshx-api/internal/account"
	"niveshx-api/internal/auth/provider"
	"niveshx-api/internal/auth/resolver"
	"niveshx-api/internal/company"
	"niveshx-api/internal/identity"
	"niveshx-api/internal/logger"
	"niveshx-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Accounts  *account.Service
	Companies *company.Service
	Providers *provider.Registry
	Resolver  resolver.Resolver
	Verifier  identity.Verifier
}

type Handler struct {
	accounts  *account.Service
	companies *company.Service
	providers *provider.Registry
	resolver  resolver.Resolver
	verifier  identity.Verifier
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		accounts:  deps.Accounts,
		companies: deps.Companies,
		providers: deps.Providers,
		resolver:  deps.Resolver,
		verifier:  deps.Verifier,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	requireBearer := middleware.RequireBearer(h.verifier)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/check-email", h.checkEmail)
	r.GET("/user", requireBearer, h.getUser)
	r.POST("/investor-profile", requireBearer, h.updateInvestorProfile)

	a := r.Group("/auth")
	a.POST("/check-email", h.checkEmail)
	a.POST("/register", h.register)
	a.POST("/verify-otp", h.verifyOTP)
	a.POST("/resend-otp", h.resendOTP)
	a.POST("/login", h.login)
	a.POST("/forgot-password", h.forgotPassword)
	a.POST("/reset-password", h.resetPassword)
	a.GET("/completion-status", requireBearer, h.completionStatus)

	co := r.Group("/company")
	co.POST("/check", h.checkCompany)
	co.POST("/register", requireBearer, h.registerCompany)
	co.POST("/send-verification-otp", requireBearer, h.sendCompanyOTP)
	co.POST("/verify-otp", requireBearer, h.verifyCompanyOTP)
	co.POST("/resend-otp", requireBearer, h.resendCompanyOTP)

	if h.providers != nil && len(h.providers.Names()) > 0 {
		r.GET("/oauth/login/:provider", h.oauthLogin)
		r.GET("/oauth/callback/:provider", h.oauthCallback)
	}

	for _, route := range r.Routes() {
		logger.Debug("route registered", map[string]any{
			"method": route.Method,
			"path":   route.Path,
		})
	}
}
