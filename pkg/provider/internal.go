// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package provider

import (
	"context"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/catalog"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/offer"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultMembershipConcurrency = 8

// Catalog is the part of the sponsor catalog the internal adapter reads and
// writes. Implemented by *catalog.Repository.
type Catalog interface {
	ActiveSponsors(ctx context.Context, offset, limit int) ([]catalog.Sponsor, error)
	SubscribedSponsorIDs(ctx context.Context, userID string) (map[uuid.UUID]bool, error)
	RecordSubscriptions(ctx context.Context, userID string, sponsorIDs []uuid.UUID) error
	SponsorsByID(ctx context.Context, ids []uuid.UUID) ([]catalog.Sponsor, error)
}

// MembershipChecker reports whether a user is a member of a sponsor chat.
type MembershipChecker interface {
	IsMember(ctx context.Context, chatID int64, userID string) (bool, error)
}

type InternalConfig struct {
	// Concurrency bounds parallel membership checks.
	Concurrency int
}

// Internal serves offers from the operator's own sponsor catalog.
type Internal struct {
	catalog Catalog
	members MembershipChecker
	cfg     InternalConfig
}

// NewInternal creates the internal catalog adapter. members may be nil, in
// which case no sponsor can be live-checked.
func NewInternal(cat Catalog, members MembershipChecker, cfg InternalConfig) *Internal {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultMembershipConcurrency
	}
	return &Internal{catalog: cat, members: members, cfg: cfg}
}

func (a *Internal) Source() offer.Source { return offer.SourceInternal }

type membership struct {
	checked bool
	member  bool
}

// checkAll runs membership checks for sponsors in parallel. Sponsors that
// cannot be checked, or whose check failed, come back unchecked.
func (a *Internal) checkAll(ctx context.Context, userID string, sponsors []catalog.Sponsor) []membership {
	results := make([]membership, len(sponsors))
	if a.members == nil {
		return results
	}

	var g errgroup.Group
	g.SetLimit(a.cfg.Concurrency)

	for i := range sponsors {
		i := i
		s := sponsors[i]
		if !s.CanCheck {
			continue
		}
		g.Go(func() error {
			member, err := a.members.IsMember(ctx, s.ChatID, userID)
			if err != nil {
				logrus.Warnf("membership check for sponsor %s failed: %v", s.URL, err)
				return nil
			}
			results[i] = membership{checked: true, member: member}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Fetch pages the catalog until budget offers are collected or the
// catalog ends.
func (a *Internal) Fetch(ctx context.Context, req FetchRequest) []offer.Offer {
	return guard(ctx, a.Source(), opFetch, func(ctx context.Context) ([]offer.Offer, error) {
		return a.fetch(ctx, req)
	})
}

func (a *Internal) fetch(ctx context.Context, req FetchRequest) ([]offer.Offer, error) {
	if req.Budget <= 0 {
		return nil, nil
	}

	history, err := a.catalog.SubscribedSponsorIDs(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	pageSize := req.Budget * 3
	var (
		offers     []offer.Offer
		subscribed []uuid.UUID
	)

	for offset := 0; len(offers) < req.Budget; offset += pageSize {
		page, err := a.catalog.ActiveSponsors(ctx, offset, pageSize)
		if err != nil {
			return nil, err
		}

		candidates := make([]catalog.Sponsor, 0, len(page))
		for _, s := range page {
			if !history[s.ID] {
				candidates = append(candidates, s)
			}
		}

		checks := a.checkAll(ctx, req.UserID, candidates)
		for i, s := range candidates {
			switch {
			case checks[i].checked && checks[i].member:
				subscribed = append(subscribed, s.ID)
			case checks[i].checked:
				o, err := sponsorOffer(s, true)
				if err != nil {
					return nil, err
				}
				offers = append(offers, o)
			case s.CanCheck && a.members != nil:
				// check failed, leave the sponsor for a later attempt
			default:
				o, err := sponsorOffer(s, false)
				if err != nil {
					return nil, err
				}
				offers = append(offers, o)
			}
		}

		if len(page) < pageSize {
			break
		}
	}

	if err := a.catalog.RecordSubscriptions(ctx, req.UserID, subscribed); err != nil {
		logrus.Warnf("failed to record sponsor history for user %s: %v", req.UserID, err)
	}

	offers = capOffers(offers, req.Budget)
	if !anyLiveCheck(offers) {
		return nil, nil
	}
	return offers, nil
}

// Verify keeps shown sponsors the user has still not joined. Sponsors that
// cannot be live-checked count as done.
func (a *Internal) Verify(ctx context.Context, req VerifyRequest) []offer.Offer {
	return guard(ctx, a.Source(), opVerify, func(ctx context.Context) ([]offer.Offer, error) {
		return a.verify(ctx, req)
	})
}

func (a *Internal) verify(ctx context.Context, req VerifyRequest) ([]offer.Offer, error) {
	ids := make([]uuid.UUID, 0, len(req.Shown))
	for _, o := range req.Shown {
		if !o.RequiresLiveCheck {
			continue
		}
		id, err := uuid.Parse(o.Ref)
		if err != nil {
			logrus.Warnf("shown internal offer %s has invalid ref %q", o.URL, o.Ref)
			continue
		}
		ids = append(ids, id)
	}

	sponsors, err := a.catalog.SponsorsByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]catalog.Sponsor, len(sponsors))
	for _, s := range sponsors {
		byID[s.ID.String()] = s
	}

	shown := make([]catalog.Sponsor, 0, len(req.Shown))
	for _, o := range req.Shown {
		if s, ok := byID[o.Ref]; ok && o.RequiresLiveCheck && s.Active {
			shown = append(shown, s)
		}
	}

	checks := a.checkAll(ctx, req.UserID, shown)

	var (
		subscribed  []uuid.UUID
		outstanding = make(map[string]bool, len(shown))
	)
	for i, s := range shown {
		switch {
		case checks[i].checked && checks[i].member:
			subscribed = append(subscribed, s.ID)
		case checks[i].checked:
			outstanding[s.ID.String()] = true
		}
	}

	if err := a.catalog.RecordSubscriptions(ctx, req.UserID, subscribed); err != nil {
		logrus.Warnf("failed to record sponsor history for user %s: %v", req.UserID, err)
	}

	var remaining []offer.Offer
	for _, o := range req.Shown {
		if outstanding[o.Ref] {
			remaining = append(remaining, o)
		}
	}
	return remaining, nil
}

func sponsorOffer(s catalog.Sponsor, live bool) (offer.Offer, error) {
	kind, err := offer.ParseActionKind(s.Kind, offer.KindChannel)
	if err != nil {
		return offer.Offer{}, err
	}
	return offer.Offer{
		URL:               s.URL,
		Source:            offer.SourceInternal,
		Kind:              kind,
		RequiresLiveCheck: live,
		Ref:               s.ID.String(),
		Title:             s.Title,
	}, nil
}

func anyLiveCheck(offers []offer.Offer) bool {
	for _, o := range offers {
		if o.RequiresLiveCheck {
			return true
		}
	}
	return false
}
