package action

import (
	"context"
)

// Grant describes who an action runs for and why.
type Grant struct {
	UserID    string
	ChatID    int64
	Language  string
	FeatureID string

	// Stage is the ring tag whose completion produced the grant.
	Stage string

	// Variant is the flow variant of the cleared attempt ("reward" or "retry").
	Variant string
}

// Action performs a side effect when a stage attempt ends.
// Actions are registered in a Registry and executed by the Executor.
type Action interface {
	// ID returns unique action identifier.
	ID() string

	// Name returns human-readable action name.
	Name() string

	// Execute performs the action for the grant.
	// Returns error if the action fails.
	Execute(ctx context.Context, grant *Grant) error

	// Config returns the action's configuration.
	Config() ActionConfig
}

// ActionResult represents the outcome of an action execution.
type ActionResult struct {
	ActionID string
	Success  bool
	Attempts int
	Error    error
	Metadata map[string]interface{}
}

// NewActionResult creates a successful action result.
func NewActionResult(actionID string) *ActionResult {
	return &ActionResult{
		ActionID: actionID,
		Success:  true,
		Metadata: make(map[string]interface{}),
	}
}

// NewActionError creates a failed action result with an error.
func NewActionError(actionID string, err error) *ActionResult {
	return &ActionResult{
		ActionID: actionID,
		Success:  false,
		Error:    err,
		Metadata: make(map[string]interface{}),
	}
}

// WithMetadata adds metadata to the result and returns it for chaining.
func (r *ActionResult) WithMetadata(key string, value interface{}) *ActionResult {
	r.Metadata[key] = value
	return r
}
