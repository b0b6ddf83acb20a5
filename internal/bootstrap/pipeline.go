// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"fmt"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/pipeline"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/unlock"
	"github.com/sirupsen/logrus"
)

// InitPipeline creates the feature manager with one stage machine per enabled feature.
//
// ============================================================
// DEVELOPER: Configure gated features
// ============================================================
// Features are configured in config/features.yaml:
//
// features:
//   - id: dart
//     ring: [manual, providerA, providerB, providerC, fallback]
//     reward_action: dart-reward
//
// Every machine shares the same store, resolver and action
// executor, so features only differ by their ring and actions.
// ============================================================
func InitPipeline(pipelineConfig *pipeline.Config, deps unlock.Dependencies) (*pipeline.Manager, error) {
	features := pipelineConfig.EnabledFeatures()

	manager, err := pipeline.NewManager(features, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to create feature manager: %w", err)
	}

	logrus.Infof("initialized feature manager with %d features", len(features))
	return manager, nil
}
