package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var otpTemplate = template.Must(template.New("otp").Parse(`<p>Hello {{.Name}},</p>
<p>Thank you for starting the registration process. Your One-Time Password (OTP) is:</p>
<h2 style="text-align:center; letter-spacing: 4px;">{{.Code}}</h2>
<p>This code will expire in {{.Minutes}} minutes.</p>
<p>If you didn't request this code, please ignore this email.</p>`))

var resetTemplate = template.Must(template.New("reset").Parse(`<p>Hello,</p>
<p>You requested a password reset. Please click the link below to set a new password:</p>
<p><a href="{{.URL}}">{{.URL}}</a></p>
<p>This link will expire in {{.Minutes}} minutes.</p>
<p>If you did not request this, please ignore this email.</p>`))

var companyOTPTemplate = template.Must(template.New("company-otp").Parse(`<p>Hello,</p>
<p>Please use the following One-Time Password (OTP) to verify your company's email address ({{.Email}}) for {{.Company}} on Niveshx:</p>
<h2 style="text-align:center; letter-spacing: 4px;">{{.Code}}</h2>
<p>This code will expire in {{.Minutes}} minutes.</p>`))

// OTPMessage builds the verification code email.
func OTPMessage(to, name, code string, ttl time.Duration) (Message, error) {
	if name == "" {
		name = "there"
	}
	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, map[string]any{
		"Name":    name,
		"Code":    code,
		"Minutes": int(ttl.Minutes()),
	})
	if err != nil {
		return Message{}, fmt.Errorf("render otp email: %w", err)
	}
	return Message{
		To:      to,
		Subject: "Your Niveshx Verification Code",
		HTML:    buf.String(),
	}, nil
}

// ResetMessage builds the password reset email pointing at resetURL.
func ResetMessage(to, resetURL string, ttl time.Duration) (Message, error) {
	var buf bytes.Buffer
	err := resetTemplate.Execute(&buf, map[string]any{
		"URL":     resetURL,
		"Minutes": int(ttl.Minutes()),
	})
	if err != nil {
		return Message{}, fmt.Errorf("render reset email: %w", err)
	}
	return Message{
		To:      to,
		Subject: "Reset Your Password for Niveshx",
		HTML:    buf.String(),
	}, nil
}

// CompanyOTPMessage builds the email that confirms a company's contact
// address.
func CompanyOTPMessage(to, company, code string, ttl time.Duration) (Message, error) {
	var buf bytes.Buffer
	err := companyOTPTemplate.Execute(&buf, map[string]any{
		"Email":   to,
		"Company": company,
		"Code":    code,
		"Minutes": int(ttl.Minutes()),
	})
	if err != nil {
		return Message{}, fmt.Errorf("render company otp email: %w", err)
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Your Verification Code for %s on Niveshx", company),
		HTML:    buf.String(),
	}, nil
}
