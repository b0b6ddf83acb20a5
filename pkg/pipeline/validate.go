package pipeline

import (
	"fmt"
	"strings"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/action"
)

// ValidateWiring validates that the features are correctly wired.
// It checks that:
// - All enabled actions in config have registered instances
// - All enabled features have a machine in the manager
// - Every role an enabled feature declares is bound to that action
func ValidateWiring(actionRegistry *action.Registry, manager *Manager, config *Config) error {
	var errors []string

	for _, ac := range config.Actions {
		if !ac.Enabled {
			continue
		}

		if actionRegistry.Get(ac.ID) == nil {
			errors = append(errors, fmt.Sprintf("action '%s' (type=%s) is enabled in config but not registered", ac.ID, ac.Type))
		}
	}

	for _, fc := range config.Features {
		if !fc.Enabled {
			continue
		}

		if manager.Machine(fc.ID) == nil {
			errors = append(errors, fmt.Sprintf("feature '%s' is enabled in config but has no machine", fc.ID))
		}

		for _, b := range fc.Bindings() {
			bound := actionRegistry.Bound(fc.ID, b.Role)
			if bound == nil || bound.ID() != b.ActionID {
				errors = append(errors, fmt.Sprintf("feature '%s' has no %s action '%s' bound", fc.ID, b.Role, b.ActionID))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("feature wiring validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
