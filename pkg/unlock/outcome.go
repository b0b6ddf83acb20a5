// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package unlock

import "github.com/AccelByte/extend-sponsor-unlock/pkg/offer"

// Outcome is what a Begin or Advance call resulted in.
type Outcome string

const (
	// OutcomeOffersShown means the user has offers to clear.
	OutcomeOffersShown Outcome = "offers_shown"
	// OutcomeReadyToAdvance means the pending attempt has no offers left and
	// the next Advance finishes it.
	OutcomeReadyToAdvance Outcome = "ready_to_advance"
	// OutcomeFallbackStarted means the fallback action ran instead of offers.
	OutcomeFallbackStarted Outcome = "fallback_started"
	// OutcomeRewardIssued means the attempt cleared and the reward action succeeded.
	OutcomeRewardIssued Outcome = "reward_issued"
	// OutcomeRetryGranted means the attempt cleared and a retry was granted.
	OutcomeRetryGranted Outcome = "retry_granted"
	// OutcomeRewardQueued means the reward action failed and operators were alerted.
	OutcomeRewardQueued Outcome = "reward_queued"
	// OutcomeNothingAvailable means no stage of the ring had anything to show.
	OutcomeNothingAvailable Outcome = "nothing_available"
	// OutcomeDailyLimitReached means the fallback cap for today is used up.
	OutcomeDailyLimitReached Outcome = "daily_limit_reached"
	// OutcomeNothingPending means Advance was called without a pending attempt.
	OutcomeNothingPending Outcome = "nothing_pending"
)

// Result is returned by Begin and Advance.
type Result struct {
	Outcome Outcome       `json:"outcome"`
	Offers  []offer.Offer `json:"offers,omitempty"`
	Stage   Tag           `json:"stage,omitempty"`
	Variant Variant       `json:"variant,omitempty"`
}
