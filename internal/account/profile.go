package account

import (
	"context"
	"fmt"

	"niveshx-api/internal/logger"
	"niveshx-api/internal/store"
	"niveshx-api/internal/validate"
)

type InvestorProfileInput struct {
	ChequeSize        string   `json:"chequeSize"`
	InterestedSectors []string `json:"interestedSectors"`
}

// UpdateInvestorProfile stores the investment preferences of accountID
// and marks its profile complete.
func (s *Service) UpdateInvestorProfile(ctx context.Context, accountID string, in InvestorProfileInput) error {
	if err := validate.Required("chequeSize", in.ChequeSize); err != nil {
		return err
	}
	if len(in.InterestedSectors) == 0 {
		return &validate.MissingFieldError{Field: "interestedSectors"}
	}

	if _, err := s.GetUser(ctx, accountID); err != nil {
		return err
	}

	sectors := make([]any, len(in.InterestedSectors))
	for i, v := range in.InterestedSectors {
		sectors[i] = v
	}
	err := s.store.Update(ctx, store.Users, accountID, store.Document{
		"chequeSize":        in.ChequeSize,
		"interestedSectors": sectors,
		"profileComplete":   true,
		"updatedAt":         s.nowMillis(),
	})
	if err != nil {
		return fmt.Errorf("update investor profile: %w", err)
	}

	logger.Info("investor profile updated", map[string]any{"account_id": accountID})
	return nil
}
