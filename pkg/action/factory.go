package action

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// ActionFactory builds an action from its configuration.
type ActionFactory func(config ActionConfig) (Action, error)

var factories = make(map[string]ActionFactory)

// RegisterActionType registers the factory for an action type. Builtin types
// register themselves from pkg/action/builtin.
func RegisterActionType(actionType string, factory ActionFactory) {
	factories[actionType] = factory
	logrus.Debugf("registered action type: %s", actionType)
}

// CreateAction builds one action. Disabled actions yield (nil, nil).
func CreateAction(config ActionConfig) (Action, error) {
	if !config.Enabled {
		logrus.Infof("skipping disabled action: %s", config.ID)
		return nil, nil
	}

	factory, exists := factories[config.Type]
	if !exists {
		return nil, fmt.Errorf("%w: unknown action type %q", ErrInvalidConfig, config.Type)
	}

	logrus.Infof("creating action: id=%s, type=%s", config.ID, config.Type)
	return factory(config)
}

// RegisterActions builds the configured actions into registry and binds
// them to the feature roles that use them.
//
// An action no feature uses is skipped with a warning when it cannot be
// built. Failures of bound actions and duplicate IDs are returned, so a
// feature never starts without the actions its roles name.
func RegisterActions(registry *Registry, configs []ActionConfig, bindings []Binding) error {
	used := make(map[string][]Binding, len(bindings))
	for _, b := range bindings {
		used[b.ActionID] = append(used[b.ActionID], b)
	}

	var (
		errs   []error
		failed = make(map[string]bool)
	)
	for _, config := range configs {
		action, err := CreateAction(config)
		if err != nil {
			err = fmt.Errorf("failed to create action %s: %w", config.ID, err)
			if _, ok := used[config.ID]; !ok {
				logrus.Warnf("%v (no feature uses it)", err)
				continue
			}
			failed[config.ID] = true
			errs = append(errs, err)
			continue
		}
		if action == nil {
			continue
		}

		if err := registry.Register(action); err != nil {
			failed[config.ID] = true
			errs = append(errs, fmt.Errorf("failed to register action %s: %w", config.ID, err))
		}
	}

	for _, b := range bindings {
		if failed[b.ActionID] {
			continue
		}
		if err := registry.Bind(b); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	logrus.Infof("registered %d actions for %d feature roles", registry.Count(), len(bindings))
	return nil
}
