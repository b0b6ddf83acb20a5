// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package unlock implements the resumable stage ring that gates a feature
// reward behind clearing sponsor offers.
//
// Two concurrent Advance calls for the same user can both observe the
// pending attempt and both run a terminal action. There is no lock around
// Begin and Advance; callers serialize per user when that matters.
package unlock

import (
	"context"
	"fmt"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/action"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/aggregator"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/metrics"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/offer"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/provider"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/state"
	"github.com/sirupsen/logrus"
)

// Resolver resolves offers for a stage. Implemented by *aggregator.Aggregator.
type Resolver interface {
	Resolve(ctx context.Context, req aggregator.Request) ([]offer.Offer, error)
	Reset(ctx context.Context, userID string) error
}

// ActionRunner executes configured actions. Implemented by *action.Executor.
type ActionRunner interface {
	Execute(ctx context.Context, actionID string, grant *action.Grant) (*action.ActionResult, error)
}

// DailyCounter counts fallback completions per calendar day.
// Implemented by *state.DailyCounter.
type DailyCounter interface {
	Count(ctx context.Context, userID, featureID string) (int64, error)
	Increment(ctx context.Context, userID, featureID string) (int64, error)
}

// OperatorNotifier alerts the people running the bot.
type OperatorNotifier interface {
	NotifyOperators(ctx context.Context, message string) error
}

// Dependencies are the collaborators of a Machine.
type Dependencies struct {
	Store     state.Store
	Resolver  Resolver
	Counter   DailyCounter
	Actions   ActionRunner
	Operators OperatorNotifier

	// ProviderReset clears providerC state after its stage clears.
	ProviderReset provider.Resetter
}

// BeginRequest starts or resumes an attempt.
type BeginRequest struct {
	UserID   string
	ChatID   int64
	Language string
	Premium  bool

	// Variant is the caller's choice for the "caller" flow policy.
	Variant Variant
}

// AdvanceRequest checks the pending attempt.
type AdvanceRequest struct {
	UserID   string
	ChatID   int64
	Language string
	Premium  bool
}

type subject struct {
	UserID   string
	ChatID   int64
	Language string
	Premium  bool
}

// Machine runs one feature's ring.
type Machine struct {
	cfg       FeatureConfig
	policy    FlowPolicy
	store     state.Store
	resolver  Resolver
	counter   DailyCounter
	actions   ActionRunner
	operators OperatorNotifier
	reset     provider.Resetter
}

// NewMachine validates cfg and creates its machine.
func NewMachine(cfg FeatureConfig, deps Dependencies) (*Machine, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	policy, err := CreatePolicy(cfg.FlowPolicy)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", cfg.ID, err)
	}

	if deps.Store == nil || deps.Resolver == nil || deps.Actions == nil {
		return nil, fmt.Errorf("%w: feature %s needs a store, a resolver and actions", ErrInvalidConfig, cfg.ID)
	}
	if cfg.HasFallback() && cfg.FallbackDailyCap > 0 && deps.Counter == nil {
		return nil, fmt.Errorf("%w: feature %s caps fallbacks but has no daily counter", ErrInvalidConfig, cfg.ID)
	}

	return &Machine{
		cfg:       cfg,
		policy:    policy,
		store:     deps.Store,
		resolver:  deps.Resolver,
		counter:   deps.Counter,
		actions:   deps.Actions,
		operators: deps.Operators,
		reset:     deps.ProviderReset,
	}, nil
}

// ID returns the feature ID.
func (m *Machine) ID() string {
	return m.cfg.ID
}

// Config returns the effective feature configuration.
func (m *Machine) Config() FeatureConfig {
	return m.cfg
}

// Begin starts an attempt, or re-renders the pending one.
func (m *Machine) Begin(ctx context.Context, req BeginRequest) (*Result, error) {
	subj := subject{UserID: req.UserID, ChatID: req.ChatID, Language: req.Language, Premium: req.Premium}

	st, err := m.loadState(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if st.Pending {
		return m.rerender(ctx, subj, st)
	}

	limited, err := m.fallbackCapReached(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if limited {
		logrus.Infof("user %s reached the daily fallback cap of feature %s", req.UserID, m.cfg.ID)
		return m.result(&Result{Outcome: OutcomeDailyLimitReached}), nil
	}

	ringLen := len(m.cfg.Ring)
	start := normalizeIndex(st.StageIndex, ringLen)

	for i := 0; i < ringLen; i++ {
		idx := (start + i) % ringLen
		tag := m.cfg.Ring[idx]

		view, err := stages[tag](ctx, m, subj)
		if err != nil {
			return nil, err
		}
		if !view.open() {
			logrus.Debugf("stage %s of feature %s has nothing for user %s", tag, m.cfg.ID, req.UserID)
			continue
		}

		variant := m.policy.Variant(st.Completions, req.Variant)
		_, err = m.updateState(ctx, req.UserID, func(s *StageState) {
			pending := idx
			s.StageIndex = idx
			s.PendingStageIndex = &pending
			s.Pending = true
			s.FlowVariant = variant
		})
		if err != nil {
			return nil, err
		}

		logrus.Infof("user %s started stage %s of feature %s (variant: %s)", req.UserID, tag, m.cfg.ID, variant)

		if view.fallback {
			m.runFallback(ctx, subj, tag, variant)
			return m.result(&Result{Outcome: OutcomeFallbackStarted, Stage: tag, Variant: variant}), nil
		}
		return m.result(&Result{Outcome: OutcomeOffersShown, Offers: view.offers, Stage: tag, Variant: variant}), nil
	}

	return m.result(&Result{Outcome: OutcomeNothingAvailable}), nil
}

// rerender shows the pending attempt again without starting a new one.
func (m *Machine) rerender(ctx context.Context, subj subject, st *StageState) (*Result, error) {
	idx := pendingIndex(st, len(m.cfg.Ring))
	tag := m.cfg.Ring[idx]

	view, err := stages[tag](ctx, m, subj)
	if err != nil {
		return nil, err
	}

	switch {
	case view.fallback:
		return m.result(&Result{Outcome: OutcomeFallbackStarted, Stage: tag, Variant: st.FlowVariant}), nil
	case view.cleared():
		return m.result(&Result{Outcome: OutcomeReadyToAdvance, Stage: tag, Variant: st.FlowVariant}), nil
	}
	return m.result(&Result{Outcome: OutcomeOffersShown, Offers: view.offers, Stage: tag, Variant: st.FlowVariant}), nil
}

// Advance re-verifies the pending attempt and finishes it when cleared.
func (m *Machine) Advance(ctx context.Context, req AdvanceRequest) (*Result, error) {
	subj := subject{UserID: req.UserID, ChatID: req.ChatID, Language: req.Language, Premium: req.Premium}

	st, err := m.loadState(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !st.Pending {
		return m.result(&Result{Outcome: OutcomeNothingPending}), nil
	}

	ringLen := len(m.cfg.Ring)
	idx := pendingIndex(st, ringLen)
	tag := m.cfg.Ring[idx]

	view, err := stages[tag](ctx, m, subj)
	if err != nil {
		return nil, err
	}
	if !view.cleared() {
		return m.result(&Result{Outcome: OutcomeOffersShown, Offers: view.offers, Stage: tag, Variant: st.FlowVariant}), nil
	}

	variant := st.FlowVariant
	if !variant.Valid() {
		variant = VariantReward
	}

	_, err = m.updateState(ctx, req.UserID, func(s *StageState) {
		s.Pending = false
		s.PendingStageIndex = nil
		s.StageIndex = (idx + 1) % ringLen
		s.Completions++
	})
	if err != nil {
		return nil, err
	}

	logrus.Infof("user %s cleared stage %s of feature %s", req.UserID, tag, m.cfg.ID)

	if tag == TagFallback && m.counter != nil {
		if _, err := m.counter.Increment(ctx, req.UserID, m.cfg.ID); err != nil {
			logrus.Errorf("failed to count fallback completion for user %s: %v", req.UserID, err)
		}
	}
	if tag == TagProviderC && m.cfg.ResetProviderOnClear && m.reset != nil {
		if err := m.reset.Reset(ctx, req.UserID); err != nil {
			logrus.Warnf("failed to reset providerC for user %s: %v", req.UserID, err)
		}
	}
	if err := m.resolver.Reset(ctx, req.UserID); err != nil {
		logrus.Warnf("failed to reset offer pass for user %s: %v", req.UserID, err)
	}

	return m.finish(ctx, subj, tag, variant)
}

// finish runs the single terminal action of a cleared attempt.
func (m *Machine) finish(ctx context.Context, subj subject, tag Tag, variant Variant) (*Result, error) {
	grant := m.grant(subj, tag, variant)

	if variant == VariantRetry {
		if _, err := m.actions.Execute(ctx, m.cfg.RetryAction, grant); err != nil {
			m.alert(ctx, fmt.Sprintf("retry action %s failed for user %s in feature %s: %v", m.cfg.RetryAction, subj.UserID, m.cfg.ID, err))
			return nil, fmt.Errorf("failed to grant retry to %s: %w", subj.UserID, err)
		}
		return m.result(&Result{Outcome: OutcomeRetryGranted, Stage: tag, Variant: variant}), nil
	}

	if _, err := m.actions.Execute(ctx, m.cfg.RewardAction, grant); err != nil {
		logrus.Errorf("reward action %s failed for user %s: %v", m.cfg.RewardAction, subj.UserID, err)
		m.alert(ctx, fmt.Sprintf("reward for user %s in feature %s is queued, action %s failed: %v", subj.UserID, m.cfg.ID, m.cfg.RewardAction, err))
		return m.result(&Result{Outcome: OutcomeRewardQueued, Stage: tag, Variant: variant}), nil
	}
	return m.result(&Result{Outcome: OutcomeRewardIssued, Stage: tag, Variant: variant}), nil
}

func (m *Machine) runFallback(ctx context.Context, subj subject, tag Tag, variant Variant) {
	if _, err := m.actions.Execute(ctx, m.cfg.FallbackAction, m.grant(subj, tag, variant)); err != nil {
		logrus.Errorf("fallback action %s failed for user %s: %v", m.cfg.FallbackAction, subj.UserID, err)
	}
}

func (m *Machine) fallbackCapReached(ctx context.Context, userID string) (bool, error) {
	if !m.cfg.HasFallback() || m.cfg.FallbackDailyCap <= 0 {
		return false, nil
	}

	n, err := m.counter.Count(ctx, userID, m.cfg.ID)
	if err != nil {
		return false, fmt.Errorf("failed to read fallback counter for %s: %w", userID, err)
	}
	return n >= int64(m.cfg.FallbackDailyCap), nil
}

func (m *Machine) grant(subj subject, tag Tag, variant Variant) *action.Grant {
	return &action.Grant{
		UserID:    subj.UserID,
		ChatID:    subj.ChatID,
		Language:  subj.Language,
		FeatureID: m.cfg.ID,
		Stage:     string(tag),
		Variant:   string(variant),
	}
}

func (m *Machine) alert(ctx context.Context, message string) {
	if m.operators == nil {
		logrus.Warnf("no operator notifier configured: %s", message)
		return
	}
	if err := m.operators.NotifyOperators(ctx, message); err != nil {
		logrus.Errorf("failed to alert operators: %v", err)
	}
}

func (m *Machine) result(r *Result) *Result {
	metrics.StageOutcomesTotal.WithLabelValues(m.cfg.ID, string(r.Outcome)).Inc()
	return r
}

func normalizeIndex(idx, ringLen int) int {
	idx %= ringLen
	if idx < 0 {
		idx += ringLen
	}
	return idx
}

func pendingIndex(st *StageState, ringLen int) int {
	if st.PendingStageIndex != nil {
		return normalizeIndex(*st.PendingStageIndex, ringLen)
	}
	return normalizeIndex(st.StageIndex, ringLen)
}
