package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/unlock"
	"github.com/sirupsen/logrus"
)

// ErrUnknownFeature is returned for feature IDs without an enabled machine.
var ErrUnknownFeature = errors.New("unknown feature")

// Manager routes stage requests to the machine of each gated feature:
// Request → Feature → Stage machine → Action
type Manager struct {
	machines map[string]*unlock.Machine
}

// NewManager creates a machine for every feature. All machines share deps.
func NewManager(features []unlock.FeatureConfig, deps unlock.Dependencies) (*Manager, error) {
	machines := make(map[string]*unlock.Machine, len(features))
	for _, fc := range features {
		if _, exists := machines[fc.ID]; exists {
			return nil, fmt.Errorf("duplicate feature ID: %s", fc.ID)
		}

		m, err := unlock.NewMachine(fc, deps)
		if err != nil {
			return nil, fmt.Errorf("failed to create machine for feature %s: %w", fc.ID, err)
		}
		machines[fc.ID] = m

		logrus.Infof("feature %s ready with ring %v", fc.ID, fc.Ring)
	}

	return &Manager{machines: machines}, nil
}

// Machine returns the machine of a feature, or nil.
func (m *Manager) Machine(featureID string) *unlock.Machine {
	return m.machines[featureID]
}

// Features returns the IDs of all features, sorted.
func (m *Manager) Features() []string {
	ids := make([]string, 0, len(m.machines))
	for id := range m.machines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *Manager) lookup(featureID string) (*unlock.Machine, error) {
	machine, ok := m.machines[featureID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFeature, featureID)
	}
	return machine, nil
}

// Begin starts or resumes an attempt on a feature.
func (m *Manager) Begin(ctx context.Context, featureID string, req unlock.BeginRequest) (*unlock.Result, error) {
	machine, err := m.lookup(featureID)
	if err != nil {
		return nil, err
	}

	res, err := machine.Begin(ctx, req)
	if err != nil {
		logrus.Errorf("begin failed for user %s in feature %s: %v", req.UserID, featureID, err)
		return nil, err
	}

	logrus.Debugf("begin for user %s in feature %s: %s", req.UserID, featureID, res.Outcome)
	return res, nil
}

// Advance checks the pending attempt on a feature.
func (m *Manager) Advance(ctx context.Context, featureID string, req unlock.AdvanceRequest) (*unlock.Result, error) {
	machine, err := m.lookup(featureID)
	if err != nil {
		return nil, err
	}

	res, err := machine.Advance(ctx, req)
	if err != nil {
		logrus.Errorf("advance failed for user %s in feature %s: %v", req.UserID, featureID, err)
		return nil, err
	}

	logrus.Debugf("advance for user %s in feature %s: %s", req.UserID, featureID, res.Outcome)
	return res, nil
}
