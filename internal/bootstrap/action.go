// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"fmt"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/action"
	actionBuiltin "github.com/AccelByte/extend-sponsor-unlock/pkg/action/builtin"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/pipeline"
	"github.com/sirupsen/logrus"
)

// InitActionExecutor creates and initializes an action executor with actions from the feature config.
//
// ============================================================
// DEVELOPER: Register custom action types here.
// ============================================================
// Actions run when a stage attempt ends: the reward of a cleared
// attempt, the retry grant, or the fallback (an ad message).
//
// Steps to add a new action:
// 1. Create your action in pkg/action/builtin/
// 2. Implement the Action interface
// 3. Register the action type in pkg/action/builtin/init.go
// 4. Add action configuration to config/features.yaml
// 5. Reference it from a feature (reward_action, retry_action or fallback_action)
//
// The builtin actions:
// - grant_item   → fulfills an AccelByte item
// - grant_retry  → adds retry credits
// - send_message → sends a chat message
// ============================================================
func InitActionExecutor(
	pipelineConfig *pipeline.Config,
	deps *actionBuiltin.Dependencies,
) (*action.Executor, *action.Registry, error) {
	actionBuiltin.RegisterActions(deps)

	// Create registry, register actions and bind them to feature roles
	registry := action.NewRegistry()
	if err := action.RegisterActions(registry, pipelineConfig.ActionConfigs(), pipelineConfig.ActionBindings()); err != nil {
		return nil, nil, fmt.Errorf("failed to register actions: %w", err)
	}

	executor := action.NewExecutor(registry)
	logrus.Infof("initialized action executor")

	return executor, registry, nil
}
