// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package unlock

import (
	"context"
	"fmt"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/aggregator"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/offer"
)

// stageView is what a stage currently asks of the user.
type stageView struct {
	offers   []offer.Offer
	fallback bool
}

// open reports whether the stage can start an attempt.
func (v stageView) open() bool {
	return v.fallback || len(v.offers) > 0
}

// cleared reports whether a pending attempt on the stage is done.
func (v stageView) cleared() bool {
	return len(v.offers) == 0
}

type stageFunc func(ctx context.Context, m *Machine, subj subject) (stageView, error)

var stages = map[Tag]stageFunc{
	TagManual:    sponsorStage(offer.SourceInternal),
	TagProviderA: sponsorStage(offer.SourceProviderA),
	TagProviderB: sponsorStage(offer.SourceProviderB),
	TagProviderC: sponsorStage(offer.SourceProviderC),
	TagFallback:  fallbackStage,
}

// sponsorStage resolves offers from a single source. The first call of an
// attempt fetches, later calls re-verify what was shown.
func sponsorStage(source offer.Source) stageFunc {
	return func(ctx context.Context, m *Machine, subj subject) (stageView, error) {
		offers, err := m.resolver.Resolve(ctx, aggregator.Request{
			UserID:   subj.UserID,
			ChatID:   subj.ChatID,
			Language: subj.Language,
			Premium:  subj.Premium,
			Budget:   m.cfg.Budget,
			Sources:  []offer.Source{source},
		})
		if err != nil {
			return stageView{}, fmt.Errorf("failed to resolve %s offers: %w", source, err)
		}
		return stageView{offers: offers}, nil
	}
}

// fallbackStage has no offers. It is always open once the daily cap allows
// it and clears on the next advance.
func fallbackStage(context.Context, *Machine, subject) (stageView, error) {
	return stageView{fallback: true}, nil
}
