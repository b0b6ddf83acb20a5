// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/offer"
)

// ProviderB talks to a bulk op network that returns every sponsor with its
// status in one call. Verification re-requests and matches by link.
type ProviderB struct {
	client *PartnerClient
}

type providerBRequest struct {
	UserID       string `json:"UserId"`
	ChatID       int64  `json:"ChatId"`
	MaxOP        int    `json:"MaxOP"`
	Action       string `json:"action"`
	LanguageCode string `json:"language_code,omitempty"`
	Premium      bool   `json:"Premium"`
}

type providerBSponsor struct {
	Link   string `json:"link"`
	Status string `json:"status"`
	Type   string `json:"type"`
	Name   string `json:"resource_name"`

	kind   offer.ActionKind
	status offer.Status
}

type providerBResponse struct {
	Status     string `json:"status"`
	Additional *struct {
		Sponsors []providerBSponsor `json:"sponsors"`
	} `json:"additional"`
}

// NewProviderB creates the providerB adapter.
func NewProviderB(client *PartnerClient) *ProviderB {
	return &ProviderB{client: client}
}

func (p *ProviderB) Source() offer.Source { return offer.SourceProviderB }

func (p *ProviderB) request(ctx context.Context, userID string, chatID int64, language string, premium bool, limit int) ([]providerBSponsor, error) {
	var resp providerBResponse
	err := p.client.PostJSON(ctx, "/request-op", providerBRequest{
		UserID:       userID,
		ChatID:       chatID,
		MaxOP:        limit,
		Action:       "subscribe",
		LanguageCode: language,
		Premium:      premium,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if resp.Additional == nil {
		if resp.Status == "ok" {
			return nil, nil
		}
		return nil, errors.New("providerB response without sponsors")
	}

	sponsors := make([]providerBSponsor, 0, len(resp.Additional.Sponsors))
	for _, s := range resp.Additional.Sponsors {
		if s.Link == "" {
			return nil, errors.New("providerB sponsor without link")
		}
		kind, err := offer.ParseActionKind(s.Type, "")
		if err != nil {
			return nil, fmt.Errorf("providerB sponsor %s: %w", s.Link, err)
		}
		status, err := offer.NormalizeStatus(s.Status)
		if err != nil {
			return nil, fmt.Errorf("providerB sponsor %s: %w", s.Link, err)
		}
		s.kind, s.status = kind, status
		sponsors = append(sponsors, s)
	}
	return sponsors, nil
}

// Fetch returns sponsors the user is not subscribed to.
func (p *ProviderB) Fetch(ctx context.Context, req FetchRequest) []offer.Offer {
	return guard(ctx, p.Source(), opFetch, func(ctx context.Context) ([]offer.Offer, error) {
		sponsors, err := p.request(ctx, req.UserID, req.ChatID, req.Language, req.Premium, req.Budget)
		if err != nil {
			return nil, err
		}

		offers := make([]offer.Offer, 0, len(sponsors))
		for _, s := range sponsors {
			if s.status != offer.StatusUnsubscribed {
				continue
			}
			offers = append(offers, offer.Offer{
				URL:               s.Link,
				Source:            offer.SourceProviderB,
				Kind:              s.kind,
				RequiresLiveCheck: true,
				Title:             s.Name,
			})
		}
		return capOffers(offers, req.Budget), nil
	})
}

// Verify keeps shown links the partner still reports as not subscribed.
// Links missing from the response are treated as done.
func (p *ProviderB) Verify(ctx context.Context, req VerifyRequest) []offer.Offer {
	return guard(ctx, p.Source(), opVerify, func(ctx context.Context) ([]offer.Offer, error) {
		sponsors, err := p.request(ctx, req.UserID, req.ChatID, req.Language, req.Premium, len(req.Shown))
		if err != nil {
			return nil, err
		}

		status := make(map[string]offer.Status, len(sponsors))
		for _, s := range sponsors {
			status[s.Link] = s.status
		}

		var outstanding []offer.Offer
		for _, o := range req.Shown {
			if st, ok := status[o.URL]; ok && st != offer.StatusSubscribed {
				outstanding = append(outstanding, o)
			}
		}
		return outstanding, nil
	})
}
