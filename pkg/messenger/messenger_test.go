// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package messenger

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
)

const testToken = "123:abc"

// botAPI is a minimal Bot API double recording the methods called.
type botAPI struct {
	mu      sync.Mutex
	calls   []string
	bodies  []map[string]interface{}
	handler func(method string, body map[string]interface{}) interface{}
}

func (b *botAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	prefix := "/bot" + testToken + "/"
	method := strings.TrimPrefix(r.URL.Path, prefix)

	body := map[string]interface{}{}
	data, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(data, &body)

	b.mu.Lock()
	b.calls = append(b.calls, method)
	b.bodies = append(b.bodies, body)
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(b.handler(method, body))
}

func (b *botAPI) methods() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func ok(result interface{}) map[string]interface{} {
	return map[string]interface{}{"ok": true, "result": result}
}

func sentMessage() map[string]interface{} {
	return ok(map[string]interface{}{
		"message_id": 1,
		"date":       0,
		"chat":       map[string]interface{}{"id": 1, "type": "private"},
	})
}

func setupMessenger(t *testing.T, admins []int64, handler func(method string, body map[string]interface{}) interface{}) (*Messenger, *botAPI) {
	t.Helper()

	api := &botAPI{handler: handler}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	m, err := New(Config{Token: testToken, APIURL: server.URL, AdminIDs: admins})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m, api
}

func TestMessenger_IsMember(t *testing.T) {
	statuses := map[string]map[string]interface{}{
		"1": {"status": "member"},
		"2": {"status": "left"},
		"3": {"status": "restricted", "is_member": true},
		"4": {"status": "restricted", "is_member": false},
		"5": {"status": "creator"},
		"6": {"status": "kicked"},
	}

	m, _ := setupMessenger(t, nil, func(method string, body map[string]interface{}) interface{} {
		if method != "getChatMember" {
			t.Errorf("unexpected method %s", method)
		}
		uid, _ := body["user_id"].(string)
		member := statuses[uid]
		member["user"] = map[string]interface{}{"id": 1}
		return ok(member)
	})

	expected := map[string]bool{"1": true, "2": false, "3": true, "4": false, "5": true, "6": false}
	for userID, want := range expected {
		got, err := m.IsMember(context.Background(), -100123, userID)
		if err != nil {
			t.Fatalf("IsMember(%s) error = %v", userID, err)
		}
		if got != want {
			t.Errorf("IsMember(%s) = %v, expected %v", userID, got, want)
		}
	}
}

func TestMessenger_IsMemberErrors(t *testing.T) {
	m, _ := setupMessenger(t, nil, func(method string, body map[string]interface{}) interface{} {
		return map[string]interface{}{"ok": false, "error_code": 400, "description": "Bad Request: chat not found"}
	})

	if _, err := m.IsMember(context.Background(), -100, "1"); err == nil {
		t.Error("expected error for API failure")
	}
	if _, err := m.IsMember(context.Background(), -100, "not-a-number"); err == nil {
		t.Error("expected error for non-numeric user ID")
	}
}

func TestMessenger_NotifyOperators(t *testing.T) {
	m, api := setupMessenger(t, []int64{10, 20}, func(method string, body map[string]interface{}) interface{} {
		return sentMessage()
	})

	if err := m.NotifyOperators(context.Background(), "reward queued"); err != nil {
		t.Fatalf("NotifyOperators() error = %v", err)
	}

	calls := api.methods()
	if len(calls) != 2 || calls[0] != "sendMessage" || calls[1] != "sendMessage" {
		t.Fatalf("calls = %v, expected two sendMessage", calls)
	}
	if text := api.bodies[0]["text"]; text != "reward queued" {
		t.Errorf("text = %v", text)
	}
}

func TestMessenger_NotifyOperatorsContinuesOnFailure(t *testing.T) {
	m, api := setupMessenger(t, []int64{10, 20}, func(method string, body map[string]interface{}) interface{} {
		if body["chat_id"] == "10" {
			return map[string]interface{}{"ok": false, "error_code": 403, "description": "Forbidden: bot was blocked by the user"}
		}
		return sentMessage()
	})

	if err := m.NotifyOperators(context.Background(), "alert"); err == nil {
		t.Error("expected joined error")
	}
	if n := len(api.methods()); n != 2 {
		t.Errorf("calls = %d, expected both operators to be tried", n)
	}
}

func TestMessenger_CopyMessage(t *testing.T) {
	m, api := setupMessenger(t, nil, func(method string, body map[string]interface{}) interface{} {
		return ok(map[string]interface{}{"message_id": 99})
	})

	if err := m.CopyMessage(context.Background(), 42, -100500, 7); err != nil {
		t.Fatalf("CopyMessage() error = %v", err)
	}

	calls := api.methods()
	if len(calls) != 1 || calls[0] != "copyMessage" {
		t.Fatalf("calls = %v, expected copyMessage", calls)
	}
	body := api.bodies[0]
	if body["chat_id"] != "42" || body["from_chat_id"] != "-100500" || body["message_id"] != "7" {
		t.Errorf("unexpected copy request: %v", body)
	}
}

func TestMessenger_CancelledContext(t *testing.T) {
	m, api := setupMessenger(t, nil, func(method string, body map[string]interface{}) interface{} {
		return sentMessage()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.SendMessage(ctx, 1, "hi"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if n := len(api.methods()); n != 0 {
		t.Errorf("calls = %d, expected none", n)
	}
}

func TestMessenger_Offline(t *testing.T) {
	m, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if m.Online() {
		t.Error("messenger without token should be offline")
	}

	if _, err := m.IsMember(context.Background(), 1, "1"); !errors.Is(err, ErrOffline) {
		t.Errorf("expected ErrOffline, got %v", err)
	}
	if err := m.SendMessage(context.Background(), 1, "hi"); err != nil {
		t.Errorf("offline send should be dropped, got %v", err)
	}
	if err := m.NotifyOperators(context.Background(), "alert"); err != nil {
		t.Errorf("offline alert should be dropped, got %v", err)
	}
}
