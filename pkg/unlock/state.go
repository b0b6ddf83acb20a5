// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package unlock

import (
	"context"
	"fmt"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/state"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

const stageKeyPrefix = "stage:"

// StageState is the position of one user in one feature ring.
type StageState struct {
	StageIndex        int     `json:"stage_index"`
	Pending           bool    `json:"pending"`
	FlowVariant       Variant `json:"flow_variant,omitempty"`
	PendingStageIndex *int    `json:"pending_stage_index"`
	Completions       int     `json:"completions"`
}

func stageKey(featureID, userID string) string {
	return stageKeyPrefix + featureID + ":" + userID
}

func decodeStageState(data []byte) (*StageState, error) {
	st := &StageState{}
	if len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return st, nil
}

func (m *Machine) loadState(ctx context.Context, userID string) (*StageState, error) {
	entry, err := m.store.Get(ctx, stageKey(m.cfg.ID, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to load stage state for %s: %w", userID, err)
	}
	if entry == nil {
		return &StageState{}, nil
	}

	st, err := decodeStageState(entry.Value)
	if err != nil {
		logrus.Warnf("discarding stage state of user %s in feature %s: %v", userID, m.cfg.ID, err)
		return &StageState{}, nil
	}
	return st, nil
}

// updateState applies mutate to the stored state through a compare-and-set
// loop and returns the written state.
func (m *Machine) updateState(ctx context.Context, userID string, mutate func(st *StageState)) (*StageState, error) {
	var written *StageState

	_, err := state.TransactionallyUpdate(ctx, m.store, stageKey(m.cfg.ID, userID), m.cfg.StateTTL, func(current []byte) ([]byte, error) {
		st, err := decodeStageState(current)
		if err != nil {
			st = &StageState{}
		}
		mutate(st)
		written = st
		return json.Marshal(st)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save stage state for %s: %w", userID, err)
	}

	return written, nil
}

// State returns the stored state of a user, for inspection.
func (m *Machine) State(ctx context.Context, userID string) (*StageState, error) {
	return m.loadState(ctx, userID)
}
