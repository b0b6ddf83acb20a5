// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package provider

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/metrics"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/offer"
	"github.com/sirupsen/logrus"
)

const (
	opFetch  = "fetch"
	opVerify = "verify"
	opReset  = "reset"
)

// FetchRequest asks a provider for fresh offers.
type FetchRequest struct {
	UserID   string
	ChatID   int64
	Language string
	Premium  bool
	Budget   int
}

// VerifyRequest asks a provider for the live status of offers it returned earlier.
type VerifyRequest struct {
	UserID   string
	ChatID   int64
	Language string
	Premium  bool
	Shown    []offer.Offer
}

// Adapter translates one partner into normalized offers.
//
// Implementations never return errors: every failure is logged and
// downgraded to an empty result so one partner cannot block the others.
type Adapter interface {
	Source() offer.Source

	// Fetch returns up to req.Budget offers the user has not cleared yet.
	Fetch(ctx context.Context, req FetchRequest) []offer.Offer

	// Verify returns the subset of req.Shown that is still outstanding.
	Verify(ctx context.Context, req VerifyRequest) []offer.Offer
}

// Resetter is implemented by adapters whose partner keeps per-user offer
// state that must be cleared after a stage is completed.
type Resetter interface {
	Reset(ctx context.Context, userID string) error
}

// guard runs call, records metrics and swallows failures.
func guard(ctx context.Context, source offer.Source, op string, call func(ctx context.Context) ([]offer.Offer, error)) (offers []offer.Offer) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logrus.WithFields(logrus.Fields{"source": source, "operation": op}).
				Errorf("provider panicked: %v\n%s", r, debug.Stack())
			observe(source, op, start, fmt.Errorf("panic: %v", r))
			offers = nil
		}
	}()

	offers, err := call(ctx)
	observe(source, op, start, err)
	if err != nil {
		return nil
	}
	return offers
}

func observe(source offer.Source, op string, start time.Time, err error) {
	outcome := metrics.OutcomeOK
	fields := logrus.Fields{"source": source, "operation": op}

	switch {
	case errors.Is(err, offer.ErrUnknownActionKind), errors.Is(err, offer.ErrUnknownStatus):
		outcome = metrics.OutcomeDrift
		fields["integration_drift"] = true
		logrus.WithFields(fields).Errorf("provider returned an unrecognised value, dropping the call: %v", err)
	case err != nil:
		outcome = metrics.OutcomeError
		logrus.WithFields(fields).Warnf("provider call failed, treating as no offers: %v", err)
	}

	metrics.ProviderCallsTotal.WithLabelValues(string(source), op, outcome).Inc()
	metrics.ProviderCallDuration.WithLabelValues(string(source), op).Observe(time.Since(start).Seconds())
}

func capOffers(offers []offer.Offer, budget int) []offer.Offer {
	if budget >= 0 && len(offers) > budget {
		return offers[:budget]
	}
	return offers
}
