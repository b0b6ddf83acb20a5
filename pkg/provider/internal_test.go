// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/catalog"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/offer"
	"github.com/google/uuid"
)

type fakeCatalog struct {
	mu       sync.Mutex
	sponsors []catalog.Sponsor
	history  map[string]map[uuid.UUID]bool
	pages    int
}

func newFakeCatalog(n int, canCheck func(i int) bool) *fakeCatalog {
	c := &fakeCatalog{history: map[string]map[uuid.UUID]bool{}}
	for i := 0; i < n; i++ {
		c.sponsors = append(c.sponsors, catalog.Sponsor{
			ID:       uuid.New(),
			URL:      fmt.Sprintf("https://t.me/sponsor%d", i),
			Kind:     "channel",
			ChatID:   int64(100 + i),
			Position: i,
			Active:   true,
			CanCheck: canCheck(i),
		})
	}
	return c
}

func (c *fakeCatalog) ActiveSponsors(ctx context.Context, offset, limit int) ([]catalog.Sponsor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages++
	if offset >= len(c.sponsors) {
		return nil, nil
	}
	end := offset + limit
	if end > len(c.sponsors) {
		end = len(c.sponsors)
	}
	return append([]catalog.Sponsor(nil), c.sponsors[offset:end]...), nil
}

func (c *fakeCatalog) SubscribedSponsorIDs(ctx context.Context, userID string) (map[uuid.UUID]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[uuid.UUID]bool{}
	for id := range c.history[userID] {
		out[id] = true
	}
	return out, nil
}

func (c *fakeCatalog) RecordSubscriptions(ctx context.Context, userID string, ids []uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.history[userID] == nil {
		c.history[userID] = map[uuid.UUID]bool{}
	}
	for _, id := range ids {
		c.history[userID][id] = true
	}
	return nil
}

func (c *fakeCatalog) SponsorsByID(ctx context.Context, ids []uuid.UUID) ([]catalog.Sponsor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []catalog.Sponsor
	for _, s := range c.sponsors {
		if want[s.ID] {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeMembers struct {
	mu      sync.Mutex
	members map[int64]bool
	failing map[int64]bool
	calls   int
}

func newFakeMembers() *fakeMembers {
	return &fakeMembers{members: map[int64]bool{}, failing: map[int64]bool{}}
}

func (m *fakeMembers) IsMember(ctx context.Context, chatID int64, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failing[chatID] {
		return false, errors.New("chat not found")
	}
	return m.members[chatID], nil
}

func (m *fakeMembers) join(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[chatID] = true
}

func allCheckable(int) bool { return true }

func TestInternal_FetchSkipsMembersAndRecordsHistory(t *testing.T) {
	cat := newFakeCatalog(6, allCheckable)
	members := newFakeMembers()
	members.join(100)
	members.join(101)

	adapter := NewInternal(cat, members, InternalConfig{Concurrency: 2})

	offers := adapter.Fetch(context.Background(), FetchRequest{UserID: "u1", Budget: 2})
	equalURLs(t, offers, "https://t.me/sponsor2", "https://t.me/sponsor3")
	for _, o := range offers {
		if o.Source != offer.SourceInternal || !o.RequiresLiveCheck {
			t.Errorf("unexpected offer: %+v", o)
		}
	}

	history, _ := cat.SubscribedSponsorIDs(context.Background(), "u1")
	if len(history) != 2 || !history[cat.sponsors[0].ID] || !history[cat.sponsors[1].ID] {
		t.Errorf("history = %v, expected sponsors 0 and 1", history)
	}

	// Second fetch must not re-check recorded sponsors.
	members.calls = 0
	adapter.Fetch(context.Background(), FetchRequest{UserID: "u1", Budget: 2})
	if members.calls != 4 {
		t.Errorf("membership calls = %d, expected 4", members.calls)
	}
}

func TestInternal_KeepsPagingWhenPageYieldsNothing(t *testing.T) {
	cat := newFakeCatalog(9, allCheckable)
	members := newFakeMembers()
	for i := 0; i < 3; i++ {
		members.join(int64(100 + i))
	}

	adapter := NewInternal(cat, members, InternalConfig{})

	offers := adapter.Fetch(context.Background(), FetchRequest{UserID: "u1", Budget: 1})
	equalURLs(t, offers, "https://t.me/sponsor3")
	if cat.pages != 2 {
		t.Errorf("pages read = %d, expected 2", cat.pages)
	}
}

func TestInternal_StopsAtCatalogEnd(t *testing.T) {
	cat := newFakeCatalog(2, allCheckable)
	adapter := NewInternal(cat, newFakeMembers(), InternalConfig{})

	offers := adapter.Fetch(context.Background(), FetchRequest{UserID: "u1", Budget: 5})
	equalURLs(t, offers, "https://t.me/sponsor0", "https://t.me/sponsor1")
	if cat.pages != 1 {
		t.Errorf("pages read = %d, expected 1", cat.pages)
	}
}

func TestInternal_FailedCheckSkipsSponsor(t *testing.T) {
	cat := newFakeCatalog(3, allCheckable)
	members := newFakeMembers()
	members.failing[101] = true

	adapter := NewInternal(cat, members, InternalConfig{})

	offers := adapter.Fetch(context.Background(), FetchRequest{UserID: "u1", Budget: 3})
	equalURLs(t, offers, "https://t.me/sponsor0", "https://t.me/sponsor2")
}

func TestInternal_UncheckableOnlyIsEmpty(t *testing.T) {
	cat := newFakeCatalog(3, func(int) bool { return false })
	adapter := NewInternal(cat, newFakeMembers(), InternalConfig{})

	if offers := adapter.Fetch(context.Background(), FetchRequest{UserID: "u1", Budget: 3}); len(offers) != 0 {
		t.Errorf("Fetch() = %v, expected empty", urls(offers))
	}
}

func TestInternal_UncheckableOfferedAlongsideLive(t *testing.T) {
	cat := newFakeCatalog(2, func(i int) bool { return i == 0 })
	adapter := NewInternal(cat, newFakeMembers(), InternalConfig{})

	offers := adapter.Fetch(context.Background(), FetchRequest{UserID: "u1", Budget: 2})
	equalURLs(t, offers, "https://t.me/sponsor0", "https://t.me/sponsor1")
	if offers[1].RequiresLiveCheck {
		t.Error("uncheckable sponsor should not require a live check")
	}
}

func TestInternal_Verify(t *testing.T) {
	cat := newFakeCatalog(3, func(i int) bool { return i != 2 })
	members := newFakeMembers()
	adapter := NewInternal(cat, members, InternalConfig{})
	ctx := context.Background()

	shown := adapter.Fetch(ctx, FetchRequest{UserID: "u1", Budget: 3})
	equalURLs(t, shown, "https://t.me/sponsor0", "https://t.me/sponsor1", "https://t.me/sponsor2")

	members.join(100)
	remaining := adapter.Verify(ctx, VerifyRequest{UserID: "u1", Shown: shown})
	equalURLs(t, remaining, "https://t.me/sponsor1")

	history, _ := cat.SubscribedSponsorIDs(ctx, "u1")
	if !history[cat.sponsors[0].ID] {
		t.Error("joined sponsor should be recorded in history")
	}

	members.failing[101] = true
	if remaining := adapter.Verify(ctx, VerifyRequest{UserID: "u1", Shown: remaining}); len(remaining) != 0 {
		t.Errorf("Verify() = %v, expected failed check to count as done", urls(remaining))
	}
}

func TestInternal_NoMembershipChecker(t *testing.T) {
	cat := newFakeCatalog(3, allCheckable)
	adapter := NewInternal(cat, nil, InternalConfig{})

	if offers := adapter.Fetch(context.Background(), FetchRequest{UserID: "u1", Budget: 3}); len(offers) != 0 {
		t.Errorf("Fetch() = %v, expected empty without membership access", urls(offers))
	}
}
