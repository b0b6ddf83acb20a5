package action

import (
	"context"
	"errors"
	"testing"
	"time"
)

// testAction is a simple action for testing
type testAction struct {
	id          string
	name        string
	config      ActionConfig
	executeFunc func(ctx context.Context, grant *Grant) error
	calls       int
	lastGrant   *Grant
}

func (a *testAction) ID() string           { return a.id }
func (a *testAction) Name() string         { return a.name }
func (a *testAction) Config() ActionConfig { return a.config }

func (a *testAction) Execute(ctx context.Context, grant *Grant) error {
	a.calls++
	a.lastGrant = grant
	if a.executeFunc != nil {
		return a.executeFunc(ctx, grant)
	}
	return nil
}

type testError struct {
	msg string
}

func (e *testError) Error() string { return e.msg }

func testGrant() *Grant {
	return &Grant{UserID: "test-user", FeatureID: "dart", Stage: "providerA", Variant: "reward"}
}

func TestNewExecutor(t *testing.T) {
	registry := NewRegistry()
	executor := NewExecutor(registry)

	if executor == nil {
		t.Fatal("Expected non-nil executor")
	}

	if executor.GetRegistry() != registry {
		t.Error("Expected executor to use provided registry")
	}
}

func TestExecutor_Execute_Success(t *testing.T) {
	registry := NewRegistry()
	executor := NewExecutor(registry)

	action := &testAction{
		id:     "test_action",
		name:   "Test Action",
		config: ActionConfig{ID: "test_action", Enabled: true},
	}
	registry.Register(action)

	grant := testGrant()
	result, err := executor.Execute(context.Background(), "test_action", grant)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !result.Success {
		t.Error("Expected successful result")
	}
	if result.Attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", result.Attempts)
	}
	if action.lastGrant != grant {
		t.Error("Expected action to receive the grant")
	}
}

func TestExecutor_Execute_ActionNotFound(t *testing.T) {
	registry := NewRegistry()
	executor := NewExecutor(registry)

	result, err := executor.Execute(context.Background(), "nonexistent_action", testGrant())
	if !errors.Is(err, ErrActionNotFound) {
		t.Errorf("Expected ErrActionNotFound, got %v", err)
	}

	if result != nil {
		t.Error("Expected nil result for nonexistent action")
	}
}

func TestExecutor_Execute_Disabled(t *testing.T) {
	registry := NewRegistry()
	executor := NewExecutor(registry)

	action := &testAction{id: "off", config: ActionConfig{ID: "off", Enabled: false}}
	registry.Register(action)

	if _, err := executor.Execute(context.Background(), "off", testGrant()); !errors.Is(err, ErrActionDisabled) {
		t.Errorf("Expected ErrActionDisabled, got %v", err)
	}
	if action.calls != 0 {
		t.Error("Expected disabled action not to run")
	}
}

func TestExecutor_Execute_MissingGrant(t *testing.T) {
	executor := NewExecutor(NewRegistry())

	if _, err := executor.Execute(context.Background(), "any", nil); !errors.Is(err, ErrMissingGrant) {
		t.Errorf("Expected ErrMissingGrant, got %v", err)
	}
}

func TestExecutor_Execute_ActionError(t *testing.T) {
	registry := NewRegistry()
	executor := NewExecutor(registry)

	expectedError := &testError{msg: "action failed"}
	action := &testAction{
		id:     "failing_action",
		name:   "Failing Action",
		config: ActionConfig{ID: "failing_action", Enabled: true},
		executeFunc: func(ctx context.Context, grant *Grant) error {
			return expectedError
		},
	}
	registry.Register(action)

	result, err := executor.Execute(context.Background(), "failing_action", testGrant())
	if err == nil {
		t.Error("Expected error from failing action")
	}

	if result.Success {
		t.Error("Expected unsuccessful result")
	}

	if result.Error != expectedError {
		t.Errorf("Expected error %v, got %v", expectedError, result.Error)
	}
	if action.calls != 1 {
		t.Errorf("Expected no retry without retry config, got %d calls", action.calls)
	}
}

func TestExecutor_Execute_RetriesUntilSuccess(t *testing.T) {
	registry := NewRegistry()
	executor := NewExecutor(registry)

	action := &testAction{
		id: "flaky",
		config: ActionConfig{
			ID:      "flaky",
			Enabled: true,
			Retry:   &RetryConfig{MaxAttempts: 3, Delay: time.Millisecond},
		},
	}
	action.executeFunc = func(ctx context.Context, grant *Grant) error {
		if action.calls < 3 {
			return errors.New("temporary")
		}
		return nil
	}
	registry.Register(action)

	result, err := executor.Execute(context.Background(), "flaky", testGrant())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", result.Attempts)
	}
}

func TestExecutor_Execute_RetriesExhausted(t *testing.T) {
	registry := NewRegistry()
	executor := NewExecutor(registry)

	action := &testAction{
		id: "broken",
		config: ActionConfig{
			ID:      "broken",
			Enabled: true,
			Retry:   &RetryConfig{MaxAttempts: 2, Delay: time.Millisecond, Backoff: "exponential"},
		},
		executeFunc: func(ctx context.Context, grant *Grant) error {
			return errors.New("still broken")
		},
	}
	registry.Register(action)

	result, err := executor.Execute(context.Background(), "broken", testGrant())
	if !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Errorf("Expected ErrMaxRetriesExceeded, got %v", err)
	}
	if action.calls != 2 || result.Attempts != 2 {
		t.Errorf("Expected 2 attempts, got calls=%d attempts=%d", action.calls, result.Attempts)
	}
}
