package handler

import (
	"net/http"

	"niveshx-api/internal/logger"

	"github.com/gin-gonic/gin"
)

func (h *Handler) oauthLogin(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown oauth provider"})
		return
	}

	state, err := newState(c)
	if err != nil {
		respondError(c, err, msgUnexpected)
		return
	}
	challenge, err := newPKCE(c)
	if err != nil {
		respondError(c, err, msgUnexpected)
		return
	}

	c.Redirect(http.StatusFound, p.AuthCodeURL(state, challenge))
}

func (h *Handler) oauthCallback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown oauth provider"})
		return
	}

	if !validState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid state"})
		return
	}

	// provider-side failure, e.g. the user cancelled consent
	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oauth callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
		return
	}

	verifier := takeFlowCookie(c, pkceCookieName)
	if verifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing pkce verifier"})
		return
	}

	ext, err := p.ExchangeCode(c.Request.Context(), code, verifier)
	if err != nil {
		logger.Warn("oauth code exchange failed", map[string]any{
			"provider": providerName,
			"error":    err,
		})
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	accountID, err := h.resolver.Resolve(c.Request.Context(), ext)
	if err != nil {
		respondError(c, err, msgUnexpected)
		return
	}

	profile, err := h.accounts.GetUser(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err, msgUnexpected)
		return
	}
	sess, err := h.accounts.IssueSession(accountID, profile)
	if err != nil {
		respondError(c, err, msgUnexpected)
		return
	}

	logger.Info("oauth login succeeded", map[string]any{
		"provider":   providerName,
		"account_id": accountID,
		"ip":         c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"token":     sess.Token,
		"expiresAt": sess.ExpiresAt.UTC(),
	})
}
