package handler

import (
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"time"

	"niveshx-api/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	stateCookieName = "__oauth_state"
	pkceCookieName  = "__oauth_pkce"
	flowCookieTTL   = 5 * time.Minute
)

// setFlowCookie stores a short-lived value for the duration of one OAuth
// round trip.
func setFlowCookie(c *gin.Context, name, value string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(flowCookieTTL.Seconds()),
	})
}

// takeFlowCookie reads a flow cookie and expires it so it cannot be
// replayed.
func takeFlowCookie(c *gin.Context, name string) string {
	cookie, err := c.Request.Cookie(name)
	if err != nil {
		return ""
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	return cookie.Value
}

func newState(c *gin.Context) (string, error) {
	state, err := utils.RandomString(32)
	if err != nil {
		return "", err
	}
	setFlowCookie(c, stateCookieName, state)
	return state, nil
}

func validState(c *gin.Context) bool {
	query := c.Query("state")
	if query == "" {
		return false
	}
	return takeFlowCookie(c, stateCookieName) == query
}

// newPKCE creates an S256 verifier/challenge pair and keeps the verifier
// in a cookie for the callback.
func newPKCE(c *gin.Context) (challenge string, err error) {
	verifier, err := utils.RandomString(32)
	if err != nil {
		return "", err
	}
	setFlowCookie(c, pkceCookieName, verifier)
	return pkceChallenge(verifier), nil
}

func pkceChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
