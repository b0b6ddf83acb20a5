package builtin

import (
	"context"
	"fmt"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/action"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/service"
	"github.com/sirupsen/logrus"
)

const (
	// GrantRetryActionID is the identifier for the retry credit action
	GrantRetryActionID = "grant_retry"
)

// GrantRetryAction gives the user extra attempts at the feature instead of
// an item.
type GrantRetryAction struct {
	config  action.ActionConfig
	credits service.RetryCreditStore
	amount  int
}

func NewGrantRetryAction(config action.ActionConfig, credits service.RetryCreditStore) *GrantRetryAction {
	return &GrantRetryAction{
		config:  config,
		credits: credits,
		amount:  config.GetParameterInt("credits", 1),
	}
}

func (a *GrantRetryAction) ID() string {
	return a.config.ID
}

func (a *GrantRetryAction) Name() string {
	return "Grant Retry"
}

func (a *GrantRetryAction) Config() action.ActionConfig {
	return a.config
}

func (a *GrantRetryAction) Execute(ctx context.Context, grant *action.Grant) error {
	if a.amount <= 0 {
		return fmt.Errorf("%w: credits must be positive", action.ErrInvalidConfig)
	}
	if a.credits == nil {
		return fmt.Errorf("retry credit store not configured")
	}

	balance, err := a.credits.AddCredits(ctx, grant.UserID, grant.FeatureID, a.amount)
	if err != nil {
		return fmt.Errorf("failed to grant retry: %w", err)
	}

	logrus.Infof("granted %d retry credit(s) to user %s for feature %s (balance: %d)",
		a.amount, grant.UserID, grant.FeatureID, balance)
	return nil
}
