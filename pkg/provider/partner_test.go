// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

// jsonHandler returns a handler that decodes the request into a map, passes
// it to respond and encodes the result.
func jsonHandler(t *testing.T, respond func(path string, req map[string]interface{}) (int, interface{})) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}

		code, body := respond(r.URL.Path, req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if body != nil {
			_ = json.NewEncoder(w).Encode(body)
		}
	}
}

func testPartnerConfig(url string) PartnerConfig {
	return PartnerConfig{
		BaseURL:       url,
		Token:         "secret",
		Timeout:       time.Second,
		MaxRetries:    2,
		RetryInterval: time.Millisecond,
	}
}

func TestPartnerClient_SendsTokenHeader(t *testing.T) {
	var gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Api-Key")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	cfg := testPartnerConfig(server.URL)
	cfg.TokenHeader = "X-Api-Key"
	client := NewPartnerClient("test", cfg)

	var out map[string]bool
	if err := client.PostJSON(context.Background(), "/ping", map[string]string{}, &out); err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if gotToken != "secret" {
		t.Errorf("token header = %q, expected %q", gotToken, "secret")
	}
	if !out["ok"] {
		t.Errorf("response not decoded: %v", out)
	}
}

func TestPartnerClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewPartnerClient("test", testPartnerConfig(server.URL))

	var out map[string]bool
	if err := client.PostJSON(context.Background(), "/ping", nil, &out); err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, expected 3", got)
	}
}

func TestPartnerClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`bad token`))
	}))
	defer server.Close()

	client := NewPartnerClient("test", testPartnerConfig(server.URL))

	var out map[string]interface{}
	err := client.PostJSON(context.Background(), "/ping", nil, &out)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("PostJSON() error = %v, expected StatusError", err)
	}
	if statusErr.Code != http.StatusUnauthorized {
		t.Errorf("status code = %d, expected %d", statusErr.Code, http.StatusUnauthorized)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, expected 1", got)
	}
}

func TestPartnerClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	cfg := testPartnerConfig(server.URL)
	cfg.Timeout = 20 * time.Millisecond
	cfg.MaxRetries = 0
	client := NewPartnerClient("test", cfg)

	start := time.Now()
	var out map[string]interface{}
	if err := client.PostJSON(context.Background(), "/slow", nil, &out); err == nil {
		t.Fatal("PostJSON() expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 400*time.Millisecond {
		t.Errorf("PostJSON() took %v, expected to give up after the timeout", elapsed)
	}
}
