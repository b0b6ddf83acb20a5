package builtin

import (
	"context"
	"errors"
	"testing"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/action"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/service/mock"
)

// mockSender is a mock implementation for testing
type mockSender struct {
	sendCalled bool
	sendError  error
	lastChatID int64
	lastText   string
}

func (m *mockSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	m.sendCalled = true
	m.lastChatID = chatID
	m.lastText = text
	return m.sendError
}

func testGrant() *action.Grant {
	return &action.Grant{UserID: "42", FeatureID: "dart", Stage: "providerA", Variant: "reward"}
}

func TestGrantItemAction_Execute(t *testing.T) {
	issuer := mock.NewRewardIssuer()
	config := action.ActionConfig{
		ID:      "dart_reward",
		Type:    GrantItemActionID,
		Enabled: true,
		Parameters: map[string]interface{}{
			"item_id":  "dart-bonus",
			"quantity": 2,
		},
	}

	act := NewGrantItemAction(config, issuer)

	if err := act.Execute(context.Background(), testGrant()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	calls := issuer.Calls()
	if len(calls) != 1 {
		t.Fatalf("Expected 1 grant call, got %d", len(calls))
	}
	if calls[0].UserID != "42" || calls[0].ItemID != "dart-bonus" || calls[0].Quantity != 2 {
		t.Errorf("Unexpected grant call: %+v", calls[0])
	}
}

func TestGrantItemAction_MissingItem(t *testing.T) {
	act := NewGrantItemAction(action.ActionConfig{ID: "bad", Enabled: true}, mock.NewRewardIssuer())

	err := act.Execute(context.Background(), testGrant())
	if !errors.Is(err, action.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestGrantItemAction_IssuerError(t *testing.T) {
	issuer := mock.NewRewardIssuer()
	issuer.DefaultError = errors.New("platform unavailable")

	act := NewGrantItemAction(action.ActionConfig{
		ID:         "dart_reward",
		Enabled:    true,
		Parameters: map[string]interface{}{"item_id": "dart-bonus"},
	}, issuer)

	if err := act.Execute(context.Background(), testGrant()); err == nil {
		t.Error("Expected error when the issuer fails")
	}
}

func TestGrantItemAction_TestMode(t *testing.T) {
	act := NewGrantItemAction(action.ActionConfig{
		ID:         "dart_reward",
		Enabled:    true,
		Parameters: map[string]interface{}{"item_id": "dart-bonus"},
	}, nil)

	if err := act.Execute(context.Background(), testGrant()); err != nil {
		t.Errorf("Expected no error without issuer, got %v", err)
	}
}

func TestGrantRetryAction_Execute(t *testing.T) {
	credits := mock.NewRetryCredits()
	act := NewGrantRetryAction(action.ActionConfig{
		ID:         "dart_retry",
		Type:       GrantRetryActionID,
		Enabled:    true,
		Parameters: map[string]interface{}{"credits": 2},
	}, credits)

	for i := 0; i < 2; i++ {
		if err := act.Execute(context.Background(), testGrant()); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	if n, _ := credits.Credits(context.Background(), "42", "dart"); n != 4 {
		t.Errorf("Expected balance 4, got %d", n)
	}
}

func TestGrantRetryAction_NoStore(t *testing.T) {
	act := NewGrantRetryAction(action.ActionConfig{ID: "dart_retry", Enabled: true}, nil)

	if err := act.Execute(context.Background(), testGrant()); err == nil {
		t.Error("Expected error without a credit store")
	}
}

func TestSendMessageAction_Execute(t *testing.T) {
	sender := &mockSender{}
	act := NewSendMessageAction(action.ActionConfig{
		ID:      "fallback_ad",
		Type:    SendMessageActionID,
		Enabled: true,
		Parameters: map[string]interface{}{
			"text":    "Visit https://example.com/ad",
			"text_ru": "Перейдите https://example.com/ad",
		},
	}, sender)

	grant := testGrant()
	if err := act.Execute(context.Background(), grant); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sender.lastChatID != 42 {
		t.Errorf("Expected chat 42 parsed from user ID, got %d", sender.lastChatID)
	}
	if sender.lastText != "Visit https://example.com/ad" {
		t.Errorf("Unexpected text: %s", sender.lastText)
	}

	grant.ChatID = 7
	grant.Language = "RU"
	if err := act.Execute(context.Background(), grant); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sender.lastChatID != 7 || sender.lastText != "Перейдите https://example.com/ad" {
		t.Errorf("Expected localized text to chat 7, got %d %q", sender.lastChatID, sender.lastText)
	}
}

func TestSendMessageAction_Errors(t *testing.T) {
	sender := &mockSender{sendError: errors.New("blocked by user")}
	act := NewSendMessageAction(action.ActionConfig{
		ID:         "fallback_ad",
		Enabled:    true,
		Parameters: map[string]interface{}{"text": "hi"},
	}, sender)

	if err := act.Execute(context.Background(), testGrant()); err == nil {
		t.Error("Expected send error to propagate")
	}

	grant := testGrant()
	grant.UserID = "not-a-number"
	sender.sendCalled = false
	if err := act.Execute(context.Background(), grant); err == nil {
		t.Error("Expected error without a chat")
	}
	if sender.sendCalled {
		t.Error("Expected no send without a chat")
	}

	empty := NewSendMessageAction(action.ActionConfig{ID: "empty", Enabled: true}, sender)
	if err := empty.Execute(context.Background(), testGrant()); !errors.Is(err, action.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}
