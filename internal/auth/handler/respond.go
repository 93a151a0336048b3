package handler

import (
	"errors"
	"io"
	"net/http"

	"niveshx-api/internal/account"
	"niveshx-api/internal/auth/credentials"
	"niveshx-api/internal/auth/resolver"
	"niveshx-api/internal/company"
	"niveshx-api/internal/logger"
	"niveshx-api/internal/validate"

	"github.com/gin-gonic/gin"
)

const msgUnexpected = "An unexpected error occurred."

type errorMapping struct {
	target  error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{account.ErrEmailRequired, http.StatusBadRequest, "Email is required"},
	{account.ErrInvalidUserType, http.StatusBadRequest, "Invalid userType specified"},
	{credentials.ErrPasswordTooShort, http.StatusBadRequest, "Password must be at least 8 characters"},
	{account.ErrAlreadyRegistered, http.StatusConflict, "User with this email already exists"},
	{account.ErrInvalidOTP, http.StatusBadRequest, "The OTP you entered is incorrect or has expired."},
	{account.ErrPendingNotFound, http.StatusNotFound, "Could not find a user to verify. Please try signing up again."},
	{account.ErrAlreadyVerified, http.StatusBadRequest, "This account is already verified. You can log in."},
	{account.ErrTooManyAttempts, http.StatusTooManyRequests, "Too many attempts. Please try again later."},
	{account.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{account.ErrNotVerified, http.StatusForbidden, "Please verify your email before logging in."},
	{account.ErrInvalidResetToken, http.StatusBadRequest, "Invalid or expired password reset token."},
	{account.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{resolver.ErrUnverifiedEmailInUse, http.StatusConflict, "An account with this email already exists. Sign in with your password."},
	{company.ErrContactEmailRequired, http.StatusBadRequest, "Contact email is required"},
	{company.ErrCompanyExists, http.StatusConflict, "A company with this contact email is already registered."},
	{company.ErrOwnerNotFound, http.StatusNotFound, "User not found"},
	{company.ErrCompanyNotFound, http.StatusNotFound, "Company not found."},
	{company.ErrNotCompanyOwner, http.StatusForbidden, "You do not own this company."},
	{company.ErrCompanyAlreadyVerified, http.StatusBadRequest, "Company is already verified."},
	{company.ErrInvalidOTP, http.StatusBadRequest, "Invalid OTP."},
	{company.ErrTooManyAttempts, http.StatusTooManyRequests, "Too many attempts. Please try again later."},
}

// respondError writes the public form of err. Errors without a mapping
// are logged and answered with a generic 500 carrying fallback.
func respondError(c *gin.Context, err error, fallback string) {
	var missing *validate.MissingFieldError
	if errors.As(err, &missing) {
		c.JSON(http.StatusBadRequest, gin.H{"error": missing.Error()})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.JSON(m.status, gin.H{"error": m.message})
			return
		}
	}

	logger.Error("request failed", map[string]any{
		"method": c.Request.Method,
		"path":   c.FullPath(),
		"error":  err,
	})
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}

// bindJSON decodes the body into v. An empty body leaves v zero valued so
// field validation reports what is missing; a malformed one is answered
// with 400 and bindJSON returns false.
func bindJSON(c *gin.Context, v any) bool {
	err := c.ShouldBindJSON(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	logger.Debug("request body not decoded", map[string]any{
		"path":  c.FullPath(),
		"error": err,
	})
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
	return false
}
