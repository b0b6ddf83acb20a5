// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package aggregator

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/offer"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/provider"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/state"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

// fakeAdapter serves a fixed offer list and treats offers in done as cleared.
type fakeAdapter struct {
	mu      sync.Mutex
	source  offer.Source
	offers  []offer.Offer
	done    map[string]bool
	fetches int
	verifs  int
}

func newFakeAdapter(source offer.Source, urls ...string) *fakeAdapter {
	a := &fakeAdapter{source: source, done: map[string]bool{}}
	for _, u := range urls {
		a.offers = append(a.offers, offer.Offer{URL: u, Source: source, Kind: offer.KindChannel, RequiresLiveCheck: true})
	}
	return a
}

func (a *fakeAdapter) Source() offer.Source { return a.source }

func (a *fakeAdapter) Fetch(ctx context.Context, req provider.FetchRequest) []offer.Offer {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fetches++

	var out []offer.Offer
	for _, o := range a.offers {
		if len(out) >= req.Budget {
			break
		}
		if !a.done[o.URL] {
			out = append(out, o)
		}
	}
	return out
}

func (a *fakeAdapter) Verify(ctx context.Context, req provider.VerifyRequest) []offer.Offer {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.verifs++

	var out []offer.Offer
	for _, o := range req.Shown {
		if !a.done[o.URL] {
			out = append(out, o)
		}
	}
	return out
}

func (a *fakeAdapter) complete(urls ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, u := range urls {
		a.done[u] = true
	}
}

func (a *fakeAdapter) calls() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fetches, a.verifs
}

type countingNotifier struct {
	mu    sync.Mutex
	users []string
}

func (n *countingNotifier) OffersCompleted(ctx context.Context, userID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users = append(n.users, userID)
	return nil
}

type fixture struct {
	agg      *Aggregator
	store    state.Store
	mr       *miniredis.Miniredis
	notifier *countingNotifier
	adapters map[offer.Source]*fakeAdapter
}

func setupAggregator(t *testing.T, adapters ...*fakeAdapter) *fixture {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := state.NewRedisStore(client, state.RedisStoreConfig{})

	registry := provider.NewRegistry()
	bySource := map[offer.Source]*fakeAdapter{}
	for _, a := range adapters {
		if err := registry.Register(a); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		bySource[a.source] = a
	}

	notifier := &countingNotifier{}
	return &fixture{
		agg:      New(store, registry, notifier, Config{}),
		store:    store,
		mr:       mr,
		notifier: notifier,
		adapters: bySource,
	}
}

func offerURLs(offers []offer.Offer) []string {
	out := make([]string, len(offers))
	for i, o := range offers {
		out[i] = o.URL
	}
	return out
}

func assertURLs(t *testing.T, got []offer.Offer, expected ...string) {
	t.Helper()
	gotURLs := offerURLs(got)
	if fmt.Sprint(gotURLs) != fmt.Sprint(expected) {
		t.Fatalf("got %v, expected %v", gotURLs, expected)
	}
}

func fullRequest(userID string, budget int) Request {
	return Request{UserID: userID, Budget: budget, Sources: offer.AllSources}
}

func TestResolve_FastPathTouchesNothing(t *testing.T) {
	a := newFakeAdapter(offer.SourceInternal, "https://t.me/i1")
	f := setupAggregator(t, a)
	ctx := context.Background()

	tests := []struct {
		name string
		req  Request
	}{
		{name: "zero budget", req: fullRequest("u1", 0)},
		{name: "negative budget", req: fullRequest("u1", -3)},
		{name: "no sources", req: Request{UserID: "u1", Budget: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offers, err := f.agg.Resolve(ctx, tt.req)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if offers != nil {
				t.Errorf("Resolve() = %v, expected nil", offerURLs(offers))
			}
		})
	}

	if fetches, verifs := a.calls(); fetches != 0 || verifs != 0 {
		t.Errorf("adapter calls = %d/%d, expected none", fetches, verifs)
	}
	if keys := f.mr.Keys(); len(keys) != 0 {
		t.Errorf("store keys = %v, expected none", keys)
	}
}

func TestResolve_PriorityOrder(t *testing.T) {
	tests := []struct {
		name     string
		premium  bool
		expected []string
	}{
		{
			name:     "non-premium",
			premium:  false,
			expected: []string{"https://t.me/i1", "https://t.me/b1", "https://t.me/a1", "https://t.me/c1"},
		},
		{
			name:     "premium",
			premium:  true,
			expected: []string{"https://t.me/a1", "https://t.me/b1", "https://t.me/i1", "https://t.me/c1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupAggregator(t,
				newFakeAdapter(offer.SourceInternal, "https://t.me/i1"),
				newFakeAdapter(offer.SourceProviderA, "https://t.me/a1"),
				newFakeAdapter(offer.SourceProviderB, "https://t.me/b1"),
				newFakeAdapter(offer.SourceProviderC, "https://t.me/c1"),
			)

			req := fullRequest("u1", 10)
			req.Premium = tt.premium
			offers, err := f.agg.Resolve(context.Background(), req)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			assertURLs(t, offers, tt.expected...)
		})
	}
}

func TestResolve_NoDuplicateURLsAndBudgetCap(t *testing.T) {
	f := setupAggregator(t,
		newFakeAdapter(offer.SourceInternal, "https://t.me/shared", "https://t.me/i1"),
		newFakeAdapter(offer.SourceProviderB, "https://t.me/shared", "https://t.me/b1", "https://t.me/b2"),
	)
	ctx := context.Background()

	offers, err := f.agg.Resolve(ctx, Request{
		UserID:  "u1",
		Budget:  3,
		Sources: []offer.Source{offer.SourceInternal, offer.SourceProviderB},
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	assertURLs(t, offers, "https://t.me/shared", "https://t.me/i1", "https://t.me/b1")

	pass, err := f.agg.Pass(ctx, "u1")
	if err != nil {
		t.Fatalf("Pass() error = %v", err)
	}
	if got := pass.Entries[offer.SourceProviderB]; got == nil || got.ShownCount != 1 {
		t.Errorf("providerB entry = %+v, expected one shown offer", got)
	}
	if got := pass.Entries[offer.SourceInternal]; got == nil || got.ShownCount != 2 {
		t.Errorf("internal entry = %+v, expected two shown offers", got)
	}
}

func TestResolve_DropsRepeatsWithinOneProvider(t *testing.T) {
	f := setupAggregator(t,
		newFakeAdapter(offer.SourceProviderB, "https://t.me/b1", "https://t.me/b1", "https://t.me/b2"),
	)

	offers, err := f.agg.Resolve(context.Background(), Request{
		UserID:  "u1",
		Budget:  4,
		Sources: []offer.Source{offer.SourceProviderB},
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	assertURLs(t, offers, "https://t.me/b1", "https://t.me/b2")
}

func TestResolve_VerifiesShownOffersAndSkipsEmptyEntries(t *testing.T) {
	internal := newFakeAdapter(offer.SourceInternal)
	providerB := newFakeAdapter(offer.SourceProviderB, "https://t.me/b1", "https://t.me/b2")
	f := setupAggregator(t, internal, providerB)
	ctx := context.Background()
	req := Request{UserID: "u1", Budget: 4, Sources: []offer.Source{offer.SourceInternal, offer.SourceProviderB}}

	offers, err := f.agg.Resolve(ctx, req)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	assertURLs(t, offers, "https://t.me/b1", "https://t.me/b2")

	providerB.complete("https://t.me/b1")

	offers, err = f.agg.Resolve(ctx, req)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	assertURLs(t, offers, "https://t.me/b2")

	if fetches, verifs := internal.calls(); fetches != 1 || verifs != 0 {
		t.Errorf("internal calls = %d/%d, expected one fetch and no verify", fetches, verifs)
	}
	if fetches, verifs := providerB.calls(); fetches != 1 || verifs != 1 {
		t.Errorf("providerB calls = %d/%d, expected one fetch and one verify", fetches, verifs)
	}
}

func TestResolve_CompletedPassShortCircuits(t *testing.T) {
	adapters := []*fakeAdapter{
		newFakeAdapter(offer.SourceInternal, "https://t.me/i1"),
		newFakeAdapter(offer.SourceProviderA),
		newFakeAdapter(offer.SourceProviderB),
		newFakeAdapter(offer.SourceProviderC),
	}
	f := setupAggregator(t, adapters...)
	ctx := context.Background()

	offers, err := f.agg.Resolve(ctx, fullRequest("u1", 4))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	assertURLs(t, offers, "https://t.me/i1")

	adapters[0].complete("https://t.me/i1")

	offers, err = f.agg.Resolve(ctx, fullRequest("u1", 4))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(offers) != 0 {
		t.Fatalf("Resolve() = %v, expected empty", offerURLs(offers))
	}
	if len(f.notifier.users) != 1 || f.notifier.users[0] != "u1" {
		t.Errorf("notifier users = %v, expected [u1]", f.notifier.users)
	}

	pass, err := f.agg.Pass(ctx, "u1")
	if err != nil || pass == nil || !pass.Completed {
		t.Fatalf("Pass() = %+v, %v, expected completed pass", pass, err)
	}

	before := make([][2]int, len(adapters))
	for i, a := range adapters {
		before[i][0], before[i][1] = a.calls()
	}

	offers, err = f.agg.Resolve(ctx, fullRequest("u1", 4))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if offers != nil {
		t.Errorf("Resolve() = %v, expected nil for completed pass", offerURLs(offers))
	}
	for i, a := range adapters {
		fetches, verifs := a.calls()
		if fetches != before[i][0] || verifs != before[i][1] {
			t.Errorf("adapter %s was called after completion", a.source)
		}
	}
	if len(f.notifier.users) != 1 {
		t.Errorf("notifier called %d times, expected once", len(f.notifier.users))
	}
}

func TestResolve_SubsetIgnoresCompletedFlag(t *testing.T) {
	providerB := newFakeAdapter(offer.SourceProviderB)
	f := setupAggregator(t,
		newFakeAdapter(offer.SourceInternal),
		newFakeAdapter(offer.SourceProviderA),
		providerB,
		newFakeAdapter(offer.SourceProviderC),
	)
	ctx := context.Background()

	if _, err := f.agg.Resolve(ctx, fullRequest("u1", 4)); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if err := f.agg.Reset(ctx, "u1"); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	providerB.offers = append(providerB.offers, offer.Offer{URL: "https://t.me/new", Source: offer.SourceProviderB})
	offers, err := f.agg.Resolve(ctx, Request{UserID: "u1", Budget: 4, Sources: []offer.Source{offer.SourceProviderB}})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	assertURLs(t, offers, "https://t.me/new")

	pass, _ := f.agg.Pass(ctx, "u1")
	if pass.Completed {
		t.Error("subset resolution must not complete the pass")
	}
}

func TestResolve_ConcurrentCallsKeepEveryEntry(t *testing.T) {
	f := setupAggregator(t,
		newFakeAdapter(offer.SourceInternal, "https://t.me/i1"),
		newFakeAdapter(offer.SourceProviderA, "https://t.me/a1"),
		newFakeAdapter(offer.SourceProviderB, "https://t.me/b1"),
		newFakeAdapter(offer.SourceProviderC, "https://t.me/c1"),
	)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, s := range offer.AllSources {
		wg.Add(1)
		go func(s offer.Source) {
			defer wg.Done()
			if _, err := f.agg.Resolve(ctx, Request{UserID: "u1", Budget: 2, Sources: []offer.Source{s}}); err != nil {
				t.Errorf("Resolve(%s) error = %v", s, err)
			}
		}(s)
	}
	wg.Wait()

	pass, err := f.agg.Pass(ctx, "u1")
	if err != nil {
		t.Fatalf("Pass() error = %v", err)
	}
	for _, s := range offer.AllSources {
		if entry := pass.Entries[s]; entry == nil || entry.ShownCount != 1 {
			t.Errorf("entry %s = %+v, expected one shown offer", s, entry)
		}
	}
}

func TestResolve_UnknownSource(t *testing.T) {
	f := setupAggregator(t)
	_, err := f.agg.Resolve(context.Background(), Request{UserID: "u1", Budget: 1, Sources: []offer.Source{"bogus"}})
	if err == nil {
		t.Fatal("Resolve() expected error for unknown source")
	}
}

func TestResolve_CorruptPassIsReplaced(t *testing.T) {
	f := setupAggregator(t, newFakeAdapter(offer.SourceInternal, "https://t.me/i1"))
	ctx := context.Background()

	if err := f.store.Set(ctx, passKey("u1"), []byte("not json"), DefaultPassTTL); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	offers, err := f.agg.Resolve(ctx, Request{UserID: "u1", Budget: 2, Sources: []offer.Source{offer.SourceInternal}})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	assertURLs(t, offers, "https://t.me/i1")

	if _, err := f.agg.Pass(ctx, "u1"); err != nil {
		t.Errorf("Pass() error = %v, expected corrupt pass to be overwritten", err)
	}
}
