package service

import (
	"context"
)

// Service interfaces for external dependencies that actions and the
// aggregator use.
//
// You may not need to have interface and go with direct struct usage,
// but having interfaces allows easier mocking for unit tests.

type RewardIssuer interface {
	// GrantReward fulfills an item for a user
	GrantReward(ctx context.Context, userID, itemID string, quantity int) error
}

type CompletionRecorder interface {
	// OffersCompleted flags that the user cleared every offer of a pass
	OffersCompleted(ctx context.Context, userID string) error
}

// RetryCreditStore keeps the retry credits granted to users per feature.
type RetryCreditStore interface {
	AddCredits(ctx context.Context, userID, featureID string, n int) (int64, error)
	Credits(ctx context.Context, userID, featureID string) (int64, error)
}
