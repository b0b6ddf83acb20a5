// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package offer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownActionKind marks a partner action type this service does not
	// understand. It indicates schema drift on the partner side.
	ErrUnknownActionKind = errors.New("unknown action kind")

	// ErrUnknownStatus marks a partner status string outside the known set.
	ErrUnknownStatus = errors.New("unknown offer status")

	// ErrMissingField marks a partner entry without a status or type.
	ErrMissingField = errors.New("missing offer field")
)

var actionKinds = map[string]ActionKind{
	"bot":               KindBot,
	"start bot":         KindBot,
	"start_bot":         KindBot,
	"channel":           KindChannel,
	"group":             KindChannel,
	"subscribe":         KindChannel,
	"subscribe channel": KindChannel,
	"perform action":    KindGenericVisit,
	"perform_action":    KindGenericVisit,
	"follow link":       KindGenericVisit,
	"resource":          KindGenericVisit,
	"link":              KindGenericVisit,
	"visit":             KindGenericVisit,
	"generic_visit":     KindGenericVisit,
	"give boost":        KindBoost,
	"boost":             KindBoost,
}

// ParseActionKind maps a partner action type string to an ActionKind.
// Empty input yields fallback, or ErrMissingField when fallback is empty.
// Unknown input yields ErrUnknownActionKind.
func ParseActionKind(raw string, fallback ActionKind) (ActionKind, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		if fallback == "" {
			return "", fmt.Errorf("%w: type", ErrMissingField)
		}
		return fallback, nil
	}

	if kind, ok := actionKinds[key]; ok {
		return kind, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownActionKind, raw)
}

var statuses = map[string]Status{
	"subscribed":     StatusSubscribed,
	"completed":      StatusSubscribed,
	"complete":       StatusSubscribed,
	"done":           StatusSubscribed,
	"success":        StatusSubscribed,
	"true":           StatusSubscribed,
	"pending":        StatusPending,
	"waiting":        StatusPending,
	"checking":       StatusPending,
	"in_progress":    StatusPending,
	"unsubscribed":   StatusUnsubscribed,
	"notsubscribed":  StatusUnsubscribed,
	"not_subscribed": StatusUnsubscribed,
	"incomplete":     StatusUnsubscribed,
	"abort":          StatusUnsubscribed,
	"new":            StatusUnsubscribed,
	"false":          StatusUnsubscribed,
}

// NormalizeStatus folds partner status strings into Status. Empty input
// yields ErrMissingField, anything outside the known set ErrUnknownStatus.
func NormalizeStatus(raw string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return "", fmt.Errorf("%w: status", ErrMissingField)
	}

	if st, ok := statuses[key]; ok {
		return st, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
}
