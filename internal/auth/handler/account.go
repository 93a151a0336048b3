package handler

import (
	"errors"
	"net/http"

	"niveshx-api/internal/account"
	"niveshx-api/internal/logger"
	"niveshx-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

type emailRequest struct {
	Email string `json:"email"`
}

func (h *Handler) checkEmail(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}

	exists, err := h.accounts.CheckEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err, msgUnexpected)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

func (h *Handler) getUser(c *gin.Context) {
	accountID, _ := middleware.AccountIDFromContext(c)

	profile, err := h.accounts.GetUser(c.Request.Context(), accountID)
	if errors.Is(err, account.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		logger.Error("get user failed", map[string]any{
			"account_id": accountID,
			"error":      err,
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) register(c *gin.Context) {
	var req account.RegisterInput
	if !bindJSON(c, &req) {
		return
	}

	if err := h.accounts.Register(c.Request.Context(), req); err != nil {
		respondError(c, err, "Failed to initiate registration.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "OTP sent to your email. Please verify to continue.",
	})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (h *Handler) verifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	if _, err := h.accounts.VerifyOTP(c.Request.Context(), req.Email, req.OTP); err != nil {
		respondError(c, err, msgUnexpected)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Email verified successfully.",
	})
}

func (h *Handler) resendOTP(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.accounts.ResendOTP(c.Request.Context(), req.Email); err != nil {
		respondError(c, err, "Failed to resend verification code. Please try again.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "If a signup is pending for this email, a new code has been sent.",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	sess, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "Failed to log in.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"token":     sess.Token,
		"expiresAt": sess.ExpiresAt.UTC(),
	})
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.accounts.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err, "An internal error occurred.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "If an account with that email exists, we have sent a password reset link to it.",
	})
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.accounts.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, err, "An internal error occurred.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password has been reset successfully.",
	})
}

func (h *Handler) completionStatus(c *gin.Context) {
	accountID, _ := middleware.AccountIDFromContext(c)

	status, err := h.accounts.CompletionStatus(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err, msgUnexpected)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"completionStatus": status,
	})
}

func (h *Handler) updateInvestorProfile(c *gin.Context) {
	accountID, _ := middleware.AccountIDFromContext(c)

	var req account.InvestorProfileInput
	if !bindJSON(c, &req) {
		return
	}

	if err := h.accounts.UpdateInvestorProfile(c.Request.Context(), accountID, req); err != nil {
		respondError(c, err, "Server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile updated successfully",
	})
}
