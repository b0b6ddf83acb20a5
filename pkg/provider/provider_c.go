// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/offer"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// Response keys under which providerC may place its offer list, in lookup order.
var providerCListKeys = []string{"offers", "sponsors", "tasks", "data"}

// ProviderC talks to an offers network that keeps per-user offer state
// and must be reset once a stage built from its offers is cleared.
type ProviderC struct {
	client *PartnerClient
}

type providerCRequest struct {
	UserID  string `json:"tg_user_id"`
	Premium bool   `json:"is_premium"`
	Lang    string `json:"lang,omitempty"`
	Limit   int    `json:"offers_limit"`
}

type providerCOffer struct {
	ID         interface{} `json:"id"`
	Link       string      `json:"link"`
	URL        string      `json:"url"`
	Status     string      `json:"status"`
	Subscribed *bool       `json:"subscribed"`
	Type       string      `json:"type"`
	Title      string      `json:"title"`

	kind   offer.ActionKind
	status offer.Status
}

func (o providerCOffer) link() string {
	if o.Link != "" {
		return o.Link
	}
	return o.URL
}

// normalize resolves the entry's status and kind. A subscribed flag takes
// precedence over the status string; one of the two must be present.
func (o *providerCOffer) normalize() error {
	kind, err := offer.ParseActionKind(o.Type, offer.KindChannel)
	if err != nil {
		return err
	}
	o.kind = kind

	if o.Subscribed != nil {
		o.status = offer.StatusUnsubscribed
		if *o.Subscribed {
			o.status = offer.StatusSubscribed
		}
		return nil
	}

	status, err := offer.NormalizeStatus(o.Status)
	if err != nil {
		return err
	}
	o.status = status
	return nil
}

type providerCResetRequest struct {
	UserID string `json:"tg_user_id"`
}

// NewProviderC creates the providerC adapter.
func NewProviderC(client *PartnerClient) *ProviderC {
	return &ProviderC{client: client}
}

func (p *ProviderC) Source() offer.Source { return offer.SourceProviderC }

func (p *ProviderC) request(ctx context.Context, userID, language string, premium bool, limit int) ([]providerCOffer, error) {
	var raw map[string]json.RawMessage
	err := p.client.PostJSON(ctx, "/offers", providerCRequest{
		UserID:  userID,
		Premium: premium,
		Lang:    language,
		Limit:   limit,
	}, &raw)
	if err != nil {
		return nil, err
	}

	for _, key := range providerCListKeys {
		list, ok := raw[key]
		if !ok {
			continue
		}

		var entries []providerCOffer
		if err := json.Unmarshal(list, &entries); err != nil {
			return nil, fmt.Errorf("failed to decode providerC %s list: %w", key, err)
		}
		for i := range entries {
			if entries[i].link() == "" {
				return nil, errors.New("providerC offer without link")
			}
			if err := entries[i].normalize(); err != nil {
				return nil, fmt.Errorf("providerC offer %s: %w", entries[i].link(), err)
			}
		}
		return entries, nil
	}

	return nil, errors.New("providerC response has no offer list")
}

// Fetch returns offers the partner reports as not completed.
func (p *ProviderC) Fetch(ctx context.Context, req FetchRequest) []offer.Offer {
	return guard(ctx, p.Source(), opFetch, func(ctx context.Context) ([]offer.Offer, error) {
		entries, err := p.request(ctx, req.UserID, req.Language, req.Premium, req.Budget)
		if err != nil {
			return nil, err
		}

		offers := make([]offer.Offer, 0, len(entries))
		for _, e := range entries {
			if e.status != offer.StatusUnsubscribed {
				continue
			}

			o := offer.Offer{
				URL:               e.link(),
				Source:            offer.SourceProviderC,
				Kind:              e.kind,
				RequiresLiveCheck: true,
				Title:             e.Title,
			}
			if e.ID != nil {
				o.Ref = fmt.Sprint(e.ID)
			}
			offers = append(offers, o)
		}
		return capOffers(offers, req.Budget), nil
	})
}

// Verify re-fetches and keeps shown offers that are still listed as open.
func (p *ProviderC) Verify(ctx context.Context, req VerifyRequest) []offer.Offer {
	return guard(ctx, p.Source(), opVerify, func(ctx context.Context) ([]offer.Offer, error) {
		entries, err := p.request(ctx, req.UserID, req.Language, req.Premium, len(req.Shown))
		if err != nil {
			return nil, err
		}

		open := make(map[string]bool, len(entries))
		for _, e := range entries {
			if e.status != offer.StatusSubscribed {
				open[e.link()] = true
			}
		}

		var outstanding []offer.Offer
		for _, o := range req.Shown {
			if open[o.URL] {
				outstanding = append(outstanding, o)
			}
		}
		return outstanding, nil
	})
}

// Reset clears the partner-side offer state for the user.
func (p *ProviderC) Reset(ctx context.Context, userID string) error {
	start := time.Now()

	var resp map[string]json.RawMessage
	err := p.client.PostJSON(ctx, "/reset", providerCResetRequest{UserID: userID}, &resp)
	observe(p.Source(), opReset, start, err)
	if err != nil {
		return fmt.Errorf("failed to reset providerC offers for %s: %w", userID, err)
	}

	logrus.Debugf("reset providerC offers for user %s", userID)
	return nil
}
