package builtin

import (
	"github.com/AccelByte/extend-sponsor-unlock/pkg/action"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/service"
)

// Dependencies holds dependencies needed by built-in actions.
type Dependencies struct {
	Services  *service.Dependencies
	Messenger MessageSender
}

// RegisterActions registers built-in action factories with dependencies.
func RegisterActions(deps *Dependencies) {
	services := deps.Services
	if services == nil {
		services = service.NewDependencies()
	}

	// Register grant item action
	action.RegisterActionType(GrantItemActionID, func(config action.ActionConfig) (action.Action, error) {
		return NewGrantItemAction(config, services.RewardIssuer), nil
	})

	// Register retry credit action
	action.RegisterActionType(GrantRetryActionID, func(config action.ActionConfig) (action.Action, error) {
		return NewGrantRetryAction(config, services.RetryCredits), nil
	})

	// Register chat message action
	action.RegisterActionType(SendMessageActionID, func(config action.ActionConfig) (action.Action, error) {
		return NewSendMessageAction(config, deps.Messenger), nil
	})
}
