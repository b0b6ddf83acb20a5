package builtin

import (
	"context"
	"fmt"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/action"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/service"
	"github.com/sirupsen/logrus"
)

const (
	// GrantItemActionID is the identifier for item grant action
	GrantItemActionID = "grant_item"
)

// GrantItemAction fulfills a configured item to the user.
// This action integrates with AccelByte Platform through service.RewardIssuer.
type GrantItemAction struct {
	config   action.ActionConfig
	issuer   service.RewardIssuer
	itemID   string
	quantity int
}

// NewGrantItemAction creates a new grant item action.
func NewGrantItemAction(config action.ActionConfig, issuer service.RewardIssuer) *GrantItemAction {
	itemID := config.GetParameterString("item_id", "")
	quantity := config.GetParameterInt("quantity", 1)

	logrus.Infof("creating grant item action: itemID=%s, quantity=%d", itemID, quantity)

	return &GrantItemAction{
		config:   config,
		issuer:   issuer,
		itemID:   itemID,
		quantity: quantity,
	}
}

// ID returns the action identifier.
func (a *GrantItemAction) ID() string {
	return a.config.ID
}

// Name returns the action name.
func (a *GrantItemAction) Name() string {
	return "Grant Item"
}

// Config returns the action configuration.
func (a *GrantItemAction) Config() action.ActionConfig {
	return a.config
}

// Execute grants the configured item to the user.
func (a *GrantItemAction) Execute(ctx context.Context, grant *action.Grant) error {
	if a.itemID == "" {
		return fmt.Errorf("%w: item_id parameter not configured", action.ErrInvalidConfig)
	}

	if a.issuer == nil {
		logrus.Warnf("[TEST MODE] would grant item %s (quantity: %d) to user %s",
			a.itemID, a.quantity, grant.UserID)
		return nil
	}

	logrus.Infof("granting item %s (quantity: %d) to user %s for feature %s",
		a.itemID, a.quantity, grant.UserID, grant.FeatureID)

	if err := a.issuer.GrantReward(ctx, grant.UserID, a.itemID, a.quantity); err != nil {
		return fmt.Errorf("failed to grant item: %w", err)
	}

	logrus.Infof("successfully granted item %s to user %s", a.itemID, grant.UserID)
	return nil
}
