// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/AccelByte/extend-sponsor-unlock/internal/config"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/action"
	actionBuiltin "github.com/AccelByte/extend-sponsor-unlock/pkg/action/builtin"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/catalog"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/offer"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/pipeline"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/spam"
	"github.com/google/uuid"
)

type copyCall struct {
	chatID, fromChatID int64
	messageID          int
}

type recordingCopier struct {
	calls chan copyCall
}

func (c *recordingCopier) CopyMessage(ctx context.Context, chatID, fromChatID int64, messageID int) error {
	c.calls <- copyCall{chatID, fromChatID, messageID}
	return nil
}

func testCatalog(t *testing.T) *catalog.Repository {
	t.Helper()
	db, err := catalog.Open(catalog.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		t.Fatalf("catalog.Open() error = %v", err)
	}
	return catalog.NewRepository(db)
}

func TestSpamScheduler_CopiesCatalogPromotions(t *testing.T) {
	repo := testCatalog(t)
	ctx := context.Background()
	for i, msgID := range []int{11, 12} {
		p := &catalog.Promotion{Title: "promo", FromChatID: -100500, MessageID: msgID, Position: i, Active: true}
		if err := repo.AddPromotion(ctx, p); err != nil {
			t.Fatalf("AddPromotion() error = %v", err)
		}
	}

	copier := &recordingCopier{calls: make(chan copyCall, 10)}
	scheduler := InitSpamScheduler(&config.Config{
		SpamEnabled:            true,
		SpamRepeatPerPromotion: 1,
		SpamMaxRetries:         1,
	}, repo, copier)
	defer scheduler.Close()

	if _, err := scheduler.Schedule(ctx, "777"); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	scheduler.Wait("777")

	close(copier.calls)
	var got []copyCall
	for c := range copier.calls {
		got = append(got, c)
	}
	if len(got) != 2 {
		t.Fatalf("copies = %v, expected 2", got)
	}
	if got[0] != (copyCall{777, -100500, 11}) || got[1] != (copyCall{777, -100500, 12}) {
		t.Errorf("unexpected copies: %v", got)
	}
}

func TestSpamScheduler_Disabled(t *testing.T) {
	if s := InitSpamScheduler(&config.Config{}, nil, nil); s != nil {
		t.Error("expected no scheduler when spam is disabled")
	}
}

func TestChatSender_RejectsNonNumericUser(t *testing.T) {
	sender := ChatSender{copier: &recordingCopier{calls: make(chan copyCall, 1)}}
	if err := sender.SendPromotion(context.Background(), "alice", spam.Promotion{}); err == nil {
		t.Error("expected error for a user without private chat")
	}
}

type failingLister struct{}

func (failingLister) ActivePromotions(ctx context.Context) ([]catalog.Promotion, error) {
	return nil, errors.New("db down")
}

func TestCatalogPromotions_Error(t *testing.T) {
	if _, err := (CatalogPromotions{catalog: failingLister{}}).Promotions(context.Background(), "1"); err == nil {
		t.Error("expected error")
	}
}

func TestInitProviders(t *testing.T) {
	cfg := &config.Config{
		ProviderCURL:          "http://partner.invalid",
		ProviderTimeout:       time.Second,
		MembershipConcurrency: 2,
	}

	registry, resetter, err := InitProviders(cfg, testCatalog(t), nil)
	if err != nil {
		t.Fatalf("InitProviders() error = %v", err)
	}
	if registry.Count() != 2 {
		t.Errorf("Count() = %d, expected internal and providerC", registry.Count())
	}
	if registry.Get(offer.SourceProviderA) != nil {
		t.Error("providerA has no URL and should not be registered")
	}
	if resetter == nil {
		t.Error("expected providerC to be returned as resetter")
	}
}

const actionWiringYAML = `
actions:
  - id: dart-reward
    type: %s
    enabled: true
    parameters:
      item_id: DART_PRIZE
  - id: stale-ad
    type: banner
    enabled: true
features:
  - id: dart
    enabled: true
    ring: [manual]
    reward_action: dart-reward
`

func TestInitActionExecutor_BindsFeatureRoles(t *testing.T) {
	cfg, err := pipeline.ParseConfig([]byte(fmt.Sprintf(actionWiringYAML, "grant_item")))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}

	_, registry, err := InitActionExecutor(cfg, &actionBuiltin.Dependencies{})
	if err != nil {
		t.Fatalf("InitActionExecutor() error = %v", err)
	}
	if got := registry.Bound("dart", action.RoleReward); got == nil || got.ID() != "dart-reward" {
		t.Errorf("dart reward = %v, expected dart-reward", got)
	}
	if registry.Get("stale-ad") != nil {
		t.Error("an unused action of unknown type should be skipped")
	}
}

func TestInitActionExecutor_FailsWhenRewardCannotBeBuilt(t *testing.T) {
	cfg, err := pipeline.ParseConfig([]byte(fmt.Sprintf(actionWiringYAML, "grant_gem")))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}

	if _, _, err := InitActionExecutor(cfg, &actionBuiltin.Dependencies{}); !errors.Is(err, action.ErrInvalidConfig) {
		t.Errorf("InitActionExecutor() error = %v, expected ErrInvalidConfig", err)
	}
}
