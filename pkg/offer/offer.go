// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package offer defines the normalized sponsor offer shared by providers,
// the aggregator and the stage machine.
package offer

// Source identifies where an offer came from.
type Source string

const (
	SourceInternal  Source = "internal"
	SourceProviderA Source = "providerA"
	SourceProviderB Source = "providerB"
	SourceProviderC Source = "providerC"
)

// AllSources lists every provider category. A resolution that includes all
// of them is a full-source resolution.
var AllSources = []Source{SourceInternal, SourceProviderA, SourceProviderB, SourceProviderC}

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceInternal, SourceProviderA, SourceProviderB, SourceProviderC:
		return true
	}
	return false
}

// ActionKind is what the user has to do to clear an offer.
type ActionKind string

const (
	KindBot          ActionKind = "bot"
	KindChannel      ActionKind = "channel"
	KindBoost        ActionKind = "boost"
	KindGenericVisit ActionKind = "generic_visit"
)

// Status is a partner status normalized to three values.
type Status string

const (
	StatusSubscribed   Status = "subscribed"
	StatusUnsubscribed Status = "unsubscribed"
	StatusPending      Status = "pending"
)

// Offer is a single sponsor action a user must complete. Offers are
// immutable once returned by an adapter.
type Offer struct {
	URL               string     `json:"url"`
	Source            Source     `json:"provider_source"`
	Kind              ActionKind `json:"action_kind"`
	RequiresLiveCheck bool       `json:"requires_live_check"`

	// Ref is the provider-side handle used to re-verify the offer
	// (partner task signature, catalog sponsor id).
	Ref   string `json:"ref,omitempty"`
	Title string `json:"title,omitempty"`
}

// Dedupe drops offers whose URL was already seen, keeping the first.
func Dedupe(offers []Offer) []Offer {
	if len(offers) == 0 {
		return offers
	}

	seen := make(map[string]struct{}, len(offers))
	out := make([]Offer, 0, len(offers))
	for _, o := range offers {
		if _, ok := seen[o.URL]; ok {
			continue
		}
		seen[o.URL] = struct{}{}
		out = append(out, o)
	}
	return out
}
