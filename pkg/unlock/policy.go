// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package unlock

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Variant decides which terminal action a cleared attempt runs.
type Variant string

const (
	VariantReward Variant = "reward"
	VariantRetry  Variant = "retry"
)

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	return v == VariantReward || v == VariantRetry
}

const (
	PolicyAlwaysReward  = "always_reward"
	PolicyAlwaysRetry   = "always_retry"
	PolicyEveryNthRetry = "every_nth_retry"
	PolicyCaller        = "caller"
)

// FlowPolicy picks the variant of a new attempt.
type FlowPolicy interface {
	// Variant receives the number of attempts the user already cleared and
	// the variant requested by the caller, if any.
	Variant(completions int, requested Variant) Variant
}

// PolicyFactory creates a policy from its parameters.
type PolicyFactory func(params map[string]interface{}) (FlowPolicy, error)

var (
	policyMu sync.RWMutex
	policies = make(map[string]PolicyFactory)
)

// RegisterPolicyType registers a factory function for a flow policy type.
func RegisterPolicyType(policyType string, factory PolicyFactory) {
	policyMu.Lock()
	defer policyMu.Unlock()

	policies[policyType] = factory
	logrus.Debugf("registered flow policy type: %s", policyType)
}

// CreatePolicy creates a flow policy from configuration.
func CreatePolicy(cfg PolicyConfig) (FlowPolicy, error) {
	policyType := cfg.Type
	if policyType == "" {
		policyType = PolicyAlwaysReward
	}

	policyMu.RLock()
	factory, ok := policies[policyType]
	policyMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, policyType)
	}

	return factory(cfg.Parameters)
}

type fixedPolicy Variant

func (p fixedPolicy) Variant(int, Variant) Variant { return Variant(p) }

// everyNthRetry makes every n-th cleared attempt a retry and the rest rewards.
type everyNthRetry struct {
	n int
}

func (p everyNthRetry) Variant(completions int, _ Variant) Variant {
	if (completions+1)%p.n == 0 {
		return VariantRetry
	}
	return VariantReward
}

// callerPolicy uses the variant chosen by the caller, defaulting to retry.
type callerPolicy struct{}

func (callerPolicy) Variant(_ int, requested Variant) Variant {
	if requested.Valid() {
		return requested
	}
	return VariantRetry
}

func paramInt(params map[string]interface{}, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func init() {
	RegisterPolicyType(PolicyAlwaysReward, func(map[string]interface{}) (FlowPolicy, error) {
		return fixedPolicy(VariantReward), nil
	})
	RegisterPolicyType(PolicyAlwaysRetry, func(map[string]interface{}) (FlowPolicy, error) {
		return fixedPolicy(VariantRetry), nil
	})
	RegisterPolicyType(PolicyEveryNthRetry, func(params map[string]interface{}) (FlowPolicy, error) {
		n := paramInt(params, "n", 3)
		if n < 1 {
			return nil, fmt.Errorf("%w: every_nth_retry needs n >= 1, got %d", ErrInvalidConfig, n)
		}
		return everyNthRetry{n: n}, nil
	})
	RegisterPolicyType(PolicyCaller, func(map[string]interface{}) (FlowPolicy, error) {
		return callerPolicy{}, nil
	})
}
