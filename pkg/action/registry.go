package action

import (
	"fmt"
	"sync"
)

// Role is the part an action plays when a feature attempt ends.
type Role string

const (
	// RoleReward runs when a cleared attempt earns the feature reward.
	RoleReward Role = "reward"
	// RoleRetry runs when a cleared attempt earns another try instead.
	RoleRetry Role = "retry"
	// RoleFallback runs when a fallback stage starts.
	RoleFallback Role = "fallback"
)

// Binding assigns an action to one role of a feature.
type Binding struct {
	FeatureID string
	Role      Role
	ActionID  string
}

type bindingKey struct {
	featureID string
	role      Role
}

// Registry holds the configured actions and the feature roles they fill.
type Registry struct {
	mu       sync.RWMutex
	actions  map[string]Action
	bindings map[bindingKey]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		actions:  make(map[string]Action),
		bindings: make(map[bindingKey]string),
	}
}

// Register adds an action. IDs are unique.
func (r *Registry) Register(action Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[action.ID()]; exists {
		return fmt.Errorf("action %s already registered", action.ID())
	}

	r.actions[action.ID()] = action
	return nil
}

// Get returns an action by ID, nil when unknown.
func (r *Registry) Get(actionID string) Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.actions[actionID]
}

// GetEnabled returns an action by ID only if it is enabled.
func (r *Registry) GetEnabled(actionID string) Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action := r.actions[actionID]
	if action != nil && !action.Config().Enabled {
		return nil
	}

	return action
}

// Bind assigns a registered, enabled action to a feature role. A role holds
// a single action.
func (r *Registry) Bind(b Binding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	action := r.actions[b.ActionID]
	if action == nil {
		return fmt.Errorf("%w: %s action %s of feature %s", ErrActionNotFound, b.Role, b.ActionID, b.FeatureID)
	}
	if !action.Config().Enabled {
		return fmt.Errorf("%w: %s action %s of feature %s", ErrActionDisabled, b.Role, b.ActionID, b.FeatureID)
	}

	key := bindingKey{featureID: b.FeatureID, role: b.Role}
	if existing, ok := r.bindings[key]; ok && existing != b.ActionID {
		return fmt.Errorf("feature %s already uses %s as its %s action", b.FeatureID, existing, b.Role)
	}

	r.bindings[key] = b.ActionID
	return nil
}

// Bound returns the action filling a feature role, nil when unbound.
func (r *Registry) Bound(featureID string, role Role) Action {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.bindings[bindingKey{featureID: featureID, role: role}]
	if !ok {
		return nil
	}
	return r.actions[id]
}

// RoleOf reports which role the action fills in the feature.
func (r *Registry) RoleOf(featureID, actionID string) (Role, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, role := range []Role{RoleReward, RoleRetry, RoleFallback} {
		if r.bindings[bindingKey{featureID: featureID, role: role}] == actionID {
			return role, true
		}
	}
	return "", false
}

// Count returns the number of registered actions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.actions)
}
