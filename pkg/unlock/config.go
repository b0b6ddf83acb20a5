// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package unlock

import (
	"fmt"
	"time"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/action"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/offer"
)

// Tag names one stage of the ring.
type Tag string

const (
	TagManual    Tag = "manual"
	TagProviderA Tag = "providerA"
	TagProviderB Tag = "providerB"
	TagProviderC Tag = "providerC"
	TagFallback  Tag = "fallback"
)

const (
	DefaultBudget   = 4
	DefaultStateTTL = 72 * time.Hour
)

// Source returns the offer source a sponsor tag resolves against.
func (t Tag) Source() (offer.Source, bool) {
	switch t {
	case TagManual:
		return offer.SourceInternal, true
	case TagProviderA:
		return offer.SourceProviderA, true
	case TagProviderB:
		return offer.SourceProviderB, true
	case TagProviderC:
		return offer.SourceProviderC, true
	}
	return "", false
}

// PolicyConfig selects and parameterizes the flow policy.
type PolicyConfig struct {
	Type       string                 `yaml:"type" json:"type"`
	Parameters map[string]interface{} `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// FeatureConfig describes one gated feature (a mini-game) and its ring.
type FeatureConfig struct {
	ID      string `yaml:"id" json:"id"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Ring    []Tag  `yaml:"ring" json:"ring"`

	// Budget is the number of offers shown per attempt.
	Budget int `yaml:"budget" json:"budget"`

	// FallbackDailyCap bounds fallback completions per user and day, 0 is unlimited.
	FallbackDailyCap int `yaml:"fallback_daily_cap" json:"fallback_daily_cap"`

	StateTTL   time.Duration `yaml:"state_ttl" json:"state_ttl"`
	FlowPolicy PolicyConfig  `yaml:"flow_policy" json:"flow_policy"`

	RewardAction   string `yaml:"reward_action" json:"reward_action"`
	RetryAction    string `yaml:"retry_action" json:"retry_action"`
	FallbackAction string `yaml:"fallback_action" json:"fallback_action"`

	// ResetProviderOnClear resets partner-side state after a providerC stage clears.
	ResetProviderOnClear bool `yaml:"reset_provider_on_clear" json:"reset_provider_on_clear"`
}

// HasFallback reports whether the ring contains a fallback stage.
func (c *FeatureConfig) HasFallback() bool {
	for _, tag := range c.Ring {
		if tag == TagFallback {
			return true
		}
	}
	return false
}

// Bindings returns the actions the feature references, by role.
func (c *FeatureConfig) Bindings() []action.Binding {
	var out []action.Binding
	for _, b := range []action.Binding{
		{FeatureID: c.ID, Role: action.RoleReward, ActionID: c.RewardAction},
		{FeatureID: c.ID, Role: action.RoleRetry, ActionID: c.RetryAction},
		{FeatureID: c.ID, Role: action.RoleFallback, ActionID: c.FallbackAction},
	} {
		if b.ActionID != "" {
			out = append(out, b)
		}
	}
	return out
}

// ApplyDefaults fills zero values.
func (c *FeatureConfig) ApplyDefaults() {
	if c.Budget <= 0 {
		c.Budget = DefaultBudget
	}
	if c.StateTTL <= 0 {
		c.StateTTL = DefaultStateTTL
	}
	if c.FlowPolicy.Type == "" {
		c.FlowPolicy.Type = PolicyAlwaysReward
	}
}

// Validate checks the configuration for errors.
func (c *FeatureConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: feature with empty ID", ErrInvalidConfig)
	}
	if len(c.Ring) == 0 {
		return fmt.Errorf("%w: feature %s has an empty ring", ErrInvalidConfig, c.ID)
	}
	for _, tag := range c.Ring {
		if _, ok := stages[tag]; !ok {
			return fmt.Errorf("%w: feature %s has unknown stage tag %q", ErrInvalidConfig, c.ID, tag)
		}
	}
	if c.FallbackDailyCap < 0 {
		return fmt.Errorf("%w: feature %s has a negative fallback_daily_cap", ErrInvalidConfig, c.ID)
	}
	if c.HasFallback() && c.FallbackAction == "" {
		return fmt.Errorf("%w: feature %s has a fallback stage but no fallback_action", ErrInvalidConfig, c.ID)
	}
	if c.RewardAction == "" && c.FlowPolicy.Type != PolicyAlwaysRetry {
		return fmt.Errorf("%w: feature %s has no reward_action", ErrInvalidConfig, c.ID)
	}
	if c.RetryAction == "" && c.FlowPolicy.Type != "" && c.FlowPolicy.Type != PolicyAlwaysReward {
		return fmt.Errorf("%w: feature %s uses policy %s but has no retry_action", ErrInvalidConfig, c.ID, c.FlowPolicy.Type)
	}
	return nil
}
