// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package aggregator resolves offers across providers for one user,
// keeping what was shown in a per-user pass so later calls verify instead of
// fetching again.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/metrics"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/offer"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/provider"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/state"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPassTTL = 10 * time.Minute

	passKeyPrefix = "pass:"
)

var (
	premiumOrder    = []offer.Source{offer.SourceProviderA, offer.SourceProviderB, offer.SourceInternal, offer.SourceProviderC}
	nonPremiumOrder = []offer.Source{offer.SourceInternal, offer.SourceProviderB, offer.SourceProviderA, offer.SourceProviderC}
)

// CompletionNotifier is told when a user has cleared every offer of a
// full-source pass.
type CompletionNotifier interface {
	OffersCompleted(ctx context.Context, userID string) error
}

// Request describes one resolution.
type Request struct {
	UserID   string
	ChatID   int64
	Language string
	Premium  bool
	Budget   int

	// Sources restricts the providers consulted. All four make a
	// full-source resolution.
	Sources []offer.Source
}

type Config struct {
	PassTTL time.Duration
}

// Aggregator merges offers from the registered providers.
type Aggregator struct {
	store     state.Store
	providers *provider.Registry
	notifier  CompletionNotifier
	cfg       Config
}

// New creates an aggregator. notifier may be nil.
func New(store state.Store, providers *provider.Registry, notifier CompletionNotifier, cfg Config) *Aggregator {
	if cfg.PassTTL <= 0 {
		cfg.PassTTL = DefaultPassTTL
	}
	return &Aggregator{
		store:     store,
		providers: providers,
		notifier:  notifier,
		cfg:       cfg,
	}
}

func passKey(userID string) string {
	return passKeyPrefix + userID
}

// Resolve returns at most req.Budget distinct offers the user still has to
// clear. An empty result means nothing is outstanding.
func (a *Aggregator) Resolve(ctx context.Context, req Request) ([]offer.Offer, error) {
	if req.Budget <= 0 || len(req.Sources) == 0 {
		metrics.ResolvesTotal.WithLabelValues("fast_path").Inc()
		return nil, nil
	}

	requested := make(map[offer.Source]bool, len(req.Sources))
	for _, s := range req.Sources {
		if !s.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSource, s)
		}
		requested[s] = true
	}
	fullSource := len(requested) == len(offer.AllSources)

	pass, err := a.load(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if fullSource && pass.Completed {
		metrics.ResolvesTotal.WithLabelValues("completed").Inc()
		logrus.Debugf("pass for user %s already completed", req.UserID)
		return nil, nil
	}
	metrics.ResolvesTotal.WithLabelValues("resolve").Inc()

	order := nonPremiumOrder
	if req.Premium {
		order = premiumOrder
	}

	var (
		result    []offer.Offer
		touched   = make(map[offer.Source]*Entry)
		remaining = req.Budget
	)

	for _, source := range order {
		if remaining <= 0 {
			break
		}
		if !requested[source] {
			continue
		}

		adapter := a.providers.Get(source)
		if adapter == nil {
			logrus.Debugf("provider %s not registered, skipping", source)
			continue
		}

		var offers []offer.Offer
		cached := pass.Entries[source]
		switch {
		case cached == nil:
			offers = adapter.Fetch(ctx, provider.FetchRequest{
				UserID:   req.UserID,
				ChatID:   req.ChatID,
				Language: req.Language,
				Premium:  req.Premium,
				Budget:   remaining,
			})
		case cached.ShownCount == 0:
			continue
		default:
			offers = adapter.Verify(ctx, provider.VerifyRequest{
				UserID:   req.UserID,
				ChatID:   req.ChatID,
				Language: req.Language,
				Premium:  req.Premium,
				Shown:    cached.ShownOffers,
			})
		}

		// result is already unique, so whatever survives past it is new.
		fresh := offer.Dedupe(append(result[:len(result):len(result)], offers...))[len(result):]
		if len(fresh) > remaining {
			fresh = fresh[:remaining]
		}
		shown := append(make([]offer.Offer, 0, len(fresh)), fresh...)

		touched[source] = &Entry{ShownCount: len(shown), ShownOffers: shown}
		result = append(result, shown...)
		remaining -= len(shown)
	}

	complete := fullSource && len(result) == 0
	if len(touched) == 0 && !complete {
		return result, nil
	}

	newlyCompleted, err := a.save(ctx, req.UserID, touched, complete)
	if err != nil {
		return nil, err
	}

	if newlyCompleted {
		logrus.Infof("user %s cleared every offer of the pass", req.UserID)
		if a.notifier != nil {
			if err := a.notifier.OffersCompleted(ctx, req.UserID); err != nil {
				logrus.Warnf("failed to record offer completion for user %s: %v", req.UserID, err)
			}
		}
	}

	return result, nil
}

func (a *Aggregator) load(ctx context.Context, userID string) (*Pass, error) {
	entry, err := a.store.Get(ctx, passKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to load pass for %s: %w", userID, err)
	}
	if entry == nil {
		return newPass(), nil
	}

	pass, err := decodePass(entry.Value)
	if err != nil {
		logrus.Warnf("discarding pass for user %s: %v", userID, err)
		return newPass(), nil
	}
	return pass, nil
}

// save merges the touched provider entries into the stored pass. It reports
// whether this call flipped the pass to completed.
func (a *Aggregator) save(ctx context.Context, userID string, touched map[offer.Source]*Entry, complete bool) (bool, error) {
	var newlyCompleted bool

	_, err := state.TransactionallyUpdate(ctx, a.store, passKey(userID), a.cfg.PassTTL, func(current []byte) ([]byte, error) {
		newlyCompleted = false

		pass, err := decodePass(current)
		if errors.Is(err, ErrCorruptPass) {
			logrus.Warnf("overwriting corrupt pass for user %s: %v", userID, err)
			pass = newPass()
		}

		for source, entry := range touched {
			pass.Entries[source] = entry
		}
		if complete && !pass.Completed {
			pass.Completed = true
			newlyCompleted = true
		}

		return json.Marshal(pass)
	})
	if err != nil {
		return false, fmt.Errorf("failed to save pass for %s: %w", userID, err)
	}

	return newlyCompleted, nil
}

// Reset drops the user's pass so the next resolution starts fresh.
func (a *Aggregator) Reset(ctx context.Context, userID string) error {
	if err := a.store.Delete(ctx, passKey(userID)); err != nil {
		return fmt.Errorf("failed to reset pass for %s: %w", userID, err)
	}
	logrus.Debugf("reset pass for user %s", userID)
	return nil
}

// Pass returns the stored pass for inspection, nil when none exists.
func (a *Aggregator) Pass(ctx context.Context, userID string) (*Pass, error) {
	entry, err := a.store.Get(ctx, passKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to load pass for %s: %w", userID, err)
	}
	if entry == nil {
		return nil, nil
	}
	return decodePass(entry.Value)
}
