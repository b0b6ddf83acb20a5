package action

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// Executor executes registered actions, retrying per action configuration.
type Executor struct {
	registry *Registry
}

// NewExecutor creates a new action executor.
func NewExecutor(registry *Registry) *Executor {
	return &Executor{
		registry: registry,
	}
}

// Execute runs an action for a grant.
func (e *Executor) Execute(ctx context.Context, actionID string, grant *Grant) (*ActionResult, error) {
	if grant == nil {
		return nil, ErrMissingGrant
	}

	action := e.registry.Get(actionID)
	if action == nil {
		return nil, fmt.Errorf("%w: %s", ErrActionNotFound, actionID)
	}
	if !action.Config().Enabled {
		return nil, fmt.Errorf("%w: %s", ErrActionDisabled, actionID)
	}

	role, ok := e.registry.RoleOf(grant.FeatureID, actionID)
	if !ok {
		role = "unbound"
	}
	logrus.Infof("executing %s action %s for feature %s (user: %s, variant: %s)", role, actionID, grant.FeatureID, grant.UserID, grant.Variant)

	attempts := 0
	op := func() error {
		attempts++
		return action.Execute(ctx, grant)
	}

	err := backoff.Retry(op, retryPolicy(ctx, action.Config().Retry))
	if err != nil {
		logrus.Errorf("action %s failed after %d attempt(s): %v", actionID, attempts, err)
		result := NewActionError(actionID, err)
		result.Attempts = attempts
		if attempts > 1 {
			err = fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, err)
		}
		return result, err
	}

	logrus.Infof("action %s completed successfully", actionID)
	result := NewActionResult(actionID)
	result.Attempts = attempts
	return result, nil
}

func retryPolicy(ctx context.Context, cfg *RetryConfig) backoff.BackOff {
	if cfg == nil || cfg.MaxAttempts <= 1 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}

	delay := cfg.Delay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(delay)
	if cfg.Backoff == "exponential" {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = delay
		exp.MaxElapsedTime = 0
		b = exp
	}

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(cfg.MaxAttempts-1)), ctx)
}

// GetRegistry returns the action registry used by this executor.
func (e *Executor) GetRegistry() *Registry {
	return e.registry
}
