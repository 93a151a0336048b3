package handler

import (
	"net/http"

	"niveshx-api/internal/company"
	"niveshx-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

type companyCheckRequest struct {
	ContactEmail string `json:"contactEmail"`
}

func (h *Handler) checkCompany(c *gin.Context) {
	var req companyCheckRequest
	if !bindJSON(c, &req) {
		return
	}

	exists, err := h.companies.Check(c.Request.Context(), req.ContactEmail)
	if err != nil {
		respondError(c, err, msgUnexpected)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

func (h *Handler) registerCompany(c *gin.Context) {
	ownerID, _ := middleware.AccountIDFromContext(c)

	var req company.Input
	if !bindJSON(c, &req) {
		return
	}

	rec, err := h.companies.Register(c.Request.Context(), ownerID, req)
	if err != nil {
		respondError(c, err, msgUnexpected)
		return
	}

	out := gin.H{"id": rec.ID}
	for k, v := range rec.Data {
		out[k] = v
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"company": out,
	})
}

type companyOTPRequest struct {
	CompanyID string `json:"companyId"`
	OTP       string `json:"otp"`
}

func (h *Handler) sendCompanyOTP(c *gin.Context) {
	h.issueCompanyOTP(c, "Company verification OTP sent successfully.")
}

func (h *Handler) resendCompanyOTP(c *gin.Context) {
	h.issueCompanyOTP(c, "A new OTP has been sent to your company email.")
}

func (h *Handler) issueCompanyOTP(c *gin.Context, message string) {
	ownerID, _ := middleware.AccountIDFromContext(c)

	var req companyOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.companies.SendVerification(c.Request.Context(), ownerID, req.CompanyID); err != nil {
		respondError(c, err, "Failed to send OTP.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func (h *Handler) verifyCompanyOTP(c *gin.Context) {
	ownerID, _ := middleware.AccountIDFromContext(c)

	var req companyOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	already, err := h.companies.Verify(c.Request.Context(), ownerID, req.CompanyID, req.OTP)
	if err != nil {
		respondError(c, err, "Failed to verify OTP.")
		return
	}
	message := "Company verified successfully."
	if already {
		message = "Company already verified."
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}
