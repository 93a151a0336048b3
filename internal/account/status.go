package account

import (
	"context"
	"errors"
	"fmt"

	"niveshx-api/internal/store"
)

const (
	NextStepDashboard           = "dashboard"
	NextStepVerifyEmail         = "verify-email"
	NextStepCompanyOnboarding   = "company-onboarding"
	NextStepCompanyVerification = "company-verification-pending"
	NextStepInvestorProfile     = "investor-profile"
)

type CompletionStatus struct {
	EmailVerified   bool   `json:"emailVerified"`
	ProfileComplete bool   `json:"profileComplete"`
	NextStep        string `json:"nextStep"`
	UserType        string `json:"userType"`
}

// CompletionStatus tells the client which onboarding screen comes next.
func (s *Service) CompletionStatus(ctx context.Context, accountID string) (*CompletionStatus, error) {
	user, err := s.GetUser(ctx, accountID)
	if err != nil {
		return nil, err
	}

	status := &CompletionStatus{
		EmailVerified: user.Bool("isVerified"),
		NextStep:      NextStepDashboard,
		UserType:      user.String("userType"),
	}

	switch status.UserType {
	case UserTypeCompany:
	case UserTypeInvestor:
		status.ProfileComplete = user.Bool("profileComplete")
		switch {
		case !status.EmailVerified:
			status.NextStep = NextStepVerifyEmail
		case !status.ProfileComplete:
			status.NextStep = NextStepInvestorProfile
		}
		return status, nil
	default:
		status.ProfileComplete = status.EmailVerified
		if !status.EmailVerified {
			status.NextStep = NextStepVerifyEmail
		}
		return status, nil
	}

	companyID := user.String("companyId")
	if companyID == "" {
		status.NextStep = NextStepCompanyOnboarding
		return status, nil
	}
	status.ProfileComplete = true

	company, err := s.store.Get(ctx, store.Companies, companyID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get company %s: %w", companyID, err)
	}
	if company == nil || !company.Bool("isVerified") {
		status.NextStep = NextStepCompanyVerification
	}
	return status, nil
}
