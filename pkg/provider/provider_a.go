// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/offer"
)

// ProviderA talks to a task-based partner network: every offer carries a
// signature and is verified individually.
type ProviderA struct {
	client *PartnerClient
	cfg    ProviderAConfig
}

type ProviderAConfig struct {
	// SelfDomain marks partner-internal links that must never be offered.
	SelfDomain string
}

type providerATasksRequest struct {
	UserID       string `json:"user_id"`
	ChatID       int64  `json:"chat_id,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	Limit        int    `json:"limit"`
}

type providerATask struct {
	Signature string  `json:"signature"`
	Link      string  `json:"link"`
	Status    string  `json:"status"`
	Type      string  `json:"task"`
	Price     float64 `json:"price"`
	IOSBan    bool    `json:"ios_ban"`
}

type providerATasksResponse struct {
	Result []providerATask `json:"result"`
	Error  string          `json:"error"`
}

type providerACheckRequest struct {
	UserID    string `json:"user_id"`
	Signature string `json:"signature"`
}

type providerACheckResponse struct {
	Result *string `json:"result"`
	Error  string  `json:"error"`
}

// NewProviderA creates the providerA adapter.
func NewProviderA(client *PartnerClient, cfg ProviderAConfig) *ProviderA {
	return &ProviderA{client: client, cfg: cfg}
}

func (p *ProviderA) Source() offer.Source { return offer.SourceProviderA }

// Fetch returns unsubscribed tasks ordered by price, highest first.
func (p *ProviderA) Fetch(ctx context.Context, req FetchRequest) []offer.Offer {
	return guard(ctx, p.Source(), opFetch, func(ctx context.Context) ([]offer.Offer, error) {
		return p.fetch(ctx, req)
	})
}

func (p *ProviderA) fetch(ctx context.Context, req FetchRequest) ([]offer.Offer, error) {
	var resp providerATasksResponse
	err := p.client.PostJSON(ctx, "/get_tasks", providerATasksRequest{
		UserID:       req.UserID,
		ChatID:       req.ChatID,
		LanguageCode: req.Language,
		Limit:        req.Budget,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("providerA error: %s", resp.Error)
	}

	type candidate struct {
		task providerATask
		kind offer.ActionKind
	}

	// Every entry is validated before filtering so one malformed task
	// drops the whole call.
	candidates := make([]candidate, 0, len(resp.Result))
	for _, t := range resp.Result {
		if t.Link == "" || t.Signature == "" {
			return nil, errors.New("providerA task without link or signature")
		}
		kind, err := offer.ParseActionKind(t.Type, "")
		if err != nil {
			return nil, fmt.Errorf("providerA task %s: %w", t.Signature, err)
		}
		status, err := offer.NormalizeStatus(t.Status)
		if err != nil {
			return nil, fmt.Errorf("providerA task %s: %w", t.Signature, err)
		}

		if t.IOSBan || (p.cfg.SelfDomain != "" && strings.Contains(t.Link, p.cfg.SelfDomain)) {
			continue
		}
		if status != offer.StatusUnsubscribed {
			continue
		}
		candidates = append(candidates, candidate{task: t, kind: kind})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].task.Price > candidates[j].task.Price })

	offers := make([]offer.Offer, 0, len(candidates))
	for _, c := range candidates {
		offers = append(offers, offer.Offer{
			URL:               c.task.Link,
			Source:            offer.SourceProviderA,
			Kind:              c.kind,
			RequiresLiveCheck: true,
			Ref:               c.task.Signature,
		})
	}

	return capOffers(offers, req.Budget), nil
}

// Verify checks every shown task by signature.
func (p *ProviderA) Verify(ctx context.Context, req VerifyRequest) []offer.Offer {
	return guard(ctx, p.Source(), opVerify, func(ctx context.Context) ([]offer.Offer, error) {
		return p.verify(ctx, req)
	})
}

func (p *ProviderA) verify(ctx context.Context, req VerifyRequest) ([]offer.Offer, error) {
	var outstanding []offer.Offer
	for _, o := range req.Shown {
		var resp providerACheckResponse
		err := p.client.PostJSON(ctx, "/check_task", providerACheckRequest{
			UserID:    req.UserID,
			Signature: o.Ref,
		}, &resp)
		if err != nil {
			return nil, err
		}
		if resp.Result == nil {
			return nil, fmt.Errorf("providerA check_task without result: %s", resp.Error)
		}

		status, err := offer.NormalizeStatus(*resp.Result)
		if err != nil {
			return nil, fmt.Errorf("providerA check_task %s: %w", o.Ref, err)
		}
		if status != offer.StatusSubscribed {
			outstanding = append(outstanding, o)
		}
	}
	return outstanding, nil
}
