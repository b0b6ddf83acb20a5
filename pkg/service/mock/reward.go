package mock

import (
	"context"
	"sync"
)

// RewardIssuer is a mock implementation of service.RewardIssuer for testing
type RewardIssuer struct {
	mu sync.Mutex

	// GrantRewardFunc is called when GrantReward is invoked
	GrantRewardFunc func(ctx context.Context, userID, itemID string, quantity int) error

	// Default error returned when no function is set
	DefaultError error

	// Call tracking
	GrantRewardCalls []GrantRewardCall
}

// GrantRewardCall tracks parameters for GrantReward calls
type GrantRewardCall struct {
	UserID   string
	ItemID   string
	Quantity int
}

// NewRewardIssuer creates a new mock RewardIssuer that always succeeds
func NewRewardIssuer() *RewardIssuer {
	return &RewardIssuer{}
}

// GrantReward records the call and returns the configured result
func (m *RewardIssuer) GrantReward(ctx context.Context, userID, itemID string, quantity int) error {
	m.mu.Lock()
	m.GrantRewardCalls = append(m.GrantRewardCalls, GrantRewardCall{
		UserID:   userID,
		ItemID:   itemID,
		Quantity: quantity,
	})
	fn := m.GrantRewardFunc
	m.mu.Unlock()

	// Use custom function if provided
	if fn != nil {
		return fn(ctx, userID, itemID, quantity)
	}

	return m.DefaultError
}

// Calls returns a copy of the recorded calls
func (m *RewardIssuer) Calls() []GrantRewardCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GrantRewardCall(nil), m.GrantRewardCalls...)
}

// CompletionRecorder is a mock implementation of service.CompletionRecorder for testing
type CompletionRecorder struct {
	mu sync.Mutex

	DefaultError error

	// Users that were flagged, in call order
	Users []string
}

// OffersCompleted records the user and returns DefaultError
func (m *CompletionRecorder) OffersCompleted(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Users = append(m.Users, userID)
	return m.DefaultError
}

// RetryCredits is an in-memory mock of service.RetryCreditStore
type RetryCredits struct {
	mu       sync.Mutex
	balances map[string]int64

	DefaultError error
}

// NewRetryCredits creates an empty credit store
func NewRetryCredits() *RetryCredits {
	return &RetryCredits{balances: make(map[string]int64)}
}

// AddCredits adds n credits for the user and feature
func (m *RetryCredits) AddCredits(ctx context.Context, userID, featureID string, n int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DefaultError != nil {
		return 0, m.DefaultError
	}
	key := featureID + ":" + userID
	m.balances[key] += int64(n)
	return m.balances[key], nil
}

// Credits returns the balance for the user and feature
func (m *RetryCredits) Credits(ctx context.Context, userID, featureID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[featureID+":"+userID], nil
}
