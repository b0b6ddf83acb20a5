// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package messenger wraps the Telegram bot for the chat capabilities the
// service needs: membership checks, operator alerts and outbound messages.
package messenger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v4"
)

// ErrOffline is returned by calls that need the Bot API when no token is
// configured.
var ErrOffline = errors.New("messenger is offline")

type Config struct {
	Token string

	// APIURL overrides the Bot API endpoint.
	APIURL string

	// AdminIDs receive operator alerts.
	AdminIDs []int64

	Timeout time.Duration
}

// Messenger talks to the Bot API. Without a token it runs offline: sends are
// logged and dropped, membership checks fail with ErrOffline.
type Messenger struct {
	bot    *tele.Bot
	admins []int64
}

// New creates a messenger. The bot is never polled; updates are handled
// elsewhere.
func New(cfg Config) (*Messenger, error) {
	m := &Messenger{admins: cfg.AdminIDs}
	if cfg.Token == "" {
		logrus.Warn("no bot token configured, messenger is offline")
		return m, nil
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	bot, err := tele.NewBot(tele.Settings{
		URL:     cfg.APIURL,
		Token:   cfg.Token,
		Client:  &http.Client{Timeout: cfg.Timeout},
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	m.bot = bot

	logrus.Infof("messenger ready with %d operator(s)", len(cfg.AdminIDs))
	return m, nil
}

// Online reports whether the messenger can reach the Bot API.
func (m *Messenger) Online() bool {
	return m.bot != nil
}

// IsMember reports whether the user is currently in the chat.
func (m *Messenger) IsMember(ctx context.Context, chatID int64, userID string) (bool, error) {
	if m.bot == nil {
		return false, ErrOffline
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return false, fmt.Errorf("invalid user ID %q: %w", userID, err)
	}

	member, err := m.bot.ChatMemberOf(tele.ChatID(chatID), &tele.User{ID: uid})
	if err != nil {
		return false, fmt.Errorf("failed to check membership of %s in %d: %w", userID, chatID, err)
	}

	switch member.Role {
	case tele.Creator, tele.Administrator, tele.Member:
		return true, nil
	case tele.Restricted:
		return member.Member, nil
	default:
		return false, nil
	}
}

// SendMessage sends a text message to a chat.
func (m *Messenger) SendMessage(ctx context.Context, chatID int64, text string) error {
	if m.bot == nil {
		logrus.Infof("offline, dropping message to chat %d", chatID)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := m.bot.Send(tele.ChatID(chatID), text); err != nil {
		return fmt.Errorf("failed to send message to %d: %w", chatID, err)
	}
	return nil
}

// CopyMessage copies a stored message into a chat.
func (m *Messenger) CopyMessage(ctx context.Context, chatID, fromChatID int64, messageID int) error {
	if m.bot == nil {
		logrus.Infof("offline, dropping copy of message %d to chat %d", messageID, chatID)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tele.StoredMessage{MessageID: strconv.Itoa(messageID), ChatID: fromChatID}
	if _, err := m.bot.Copy(tele.ChatID(chatID), msg); err != nil {
		return fmt.Errorf("failed to copy message %d to %d: %w", messageID, chatID, err)
	}
	return nil
}

// NotifyOperators sends message to every admin. Failures for single admins
// do not stop the others.
func (m *Messenger) NotifyOperators(ctx context.Context, message string) error {
	if len(m.admins) == 0 {
		logrus.Warnf("no operators configured, alert dropped: %s", message)
		return nil
	}

	var errs []error
	for _, admin := range m.admins {
		if err := m.SendMessage(ctx, admin, message); err != nil {
			logrus.Errorf("failed to alert operator %d: %v", admin, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
