// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package unlock

import (
	"errors"
	"testing"
)

func TestCreatePolicy(t *testing.T) {
	tests := []struct {
		name      string
		cfg       PolicyConfig
		requested Variant
		expected  []Variant
	}{
		{
			name:     "default is always reward",
			cfg:      PolicyConfig{},
			expected: []Variant{VariantReward, VariantReward, VariantReward},
		},
		{
			name:     "always retry",
			cfg:      PolicyConfig{Type: PolicyAlwaysRetry},
			expected: []Variant{VariantRetry, VariantRetry},
		},
		{
			name:     "every third attempt retries by default",
			cfg:      PolicyConfig{Type: PolicyEveryNthRetry},
			expected: []Variant{VariantReward, VariantReward, VariantRetry, VariantReward, VariantReward, VariantRetry},
		},
		{
			name:     "every nth from yaml float",
			cfg:      PolicyConfig{Type: PolicyEveryNthRetry, Parameters: map[string]interface{}{"n": 1.0}},
			expected: []Variant{VariantRetry, VariantRetry},
		},
		{
			name:      "caller choice",
			cfg:       PolicyConfig{Type: PolicyCaller},
			requested: VariantReward,
			expected:  []Variant{VariantReward, VariantReward},
		},
		{
			name:     "caller without choice",
			cfg:      PolicyConfig{Type: PolicyCaller},
			expected: []Variant{VariantRetry},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy, err := CreatePolicy(tt.cfg)
			if err != nil {
				t.Fatalf("CreatePolicy() error = %v", err)
			}
			for completions, want := range tt.expected {
				if got := policy.Variant(completions, tt.requested); got != want {
					t.Errorf("Variant(%d) = %s, expected %s", completions, got, want)
				}
			}
		})
	}
}

func TestCreatePolicy_Errors(t *testing.T) {
	if _, err := CreatePolicy(PolicyConfig{Type: "coin_flip"}); !errors.Is(err, ErrUnknownPolicy) {
		t.Errorf("expected ErrUnknownPolicy, got %v", err)
	}

	_, err := CreatePolicy(PolicyConfig{Type: PolicyEveryNthRetry, Parameters: map[string]interface{}{"n": 0}})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for n=0, got %v", err)
	}
}

func TestRegisterPolicyType(t *testing.T) {
	RegisterPolicyType("test_alternate", func(map[string]interface{}) (FlowPolicy, error) {
		return alternate{}, nil
	})

	policy, err := CreatePolicy(PolicyConfig{Type: "test_alternate"})
	if err != nil {
		t.Fatalf("CreatePolicy() error = %v", err)
	}
	if policy.Variant(0, "") != VariantReward || policy.Variant(1, "") != VariantRetry {
		t.Error("custom policy not used")
	}
}

type alternate struct{}

func (alternate) Variant(completions int, _ Variant) Variant {
	if completions%2 == 1 {
		return VariantRetry
	}
	return VariantReward
}
