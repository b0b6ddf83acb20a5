package builtin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/action"
	"github.com/sirupsen/logrus"
)

const (
	// SendMessageActionID is the identifier for the chat message action
	SendMessageActionID = "send_message"
)

// MessageSender delivers a text message to a chat.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// SendMessageAction sends a configured text to the user, e.g. the fallback
// ad link shown when no sponsor has offers left.
type SendMessageAction struct {
	config action.ActionConfig
	sender MessageSender
}

func NewSendMessageAction(config action.ActionConfig, sender MessageSender) *SendMessageAction {
	return &SendMessageAction{
		config: config,
		sender: sender,
	}
}

func (a *SendMessageAction) ID() string {
	return a.config.ID
}

func (a *SendMessageAction) Name() string {
	return "Send Message"
}

func (a *SendMessageAction) Config() action.ActionConfig {
	return a.config
}

// text picks "text_<language>" when configured, else "text".
func (a *SendMessageAction) text(language string) string {
	if language != "" {
		if localized := a.config.GetParameterString("text_"+strings.ToLower(language), ""); localized != "" {
			return localized
		}
	}
	return a.config.GetParameterString("text", "")
}

func (a *SendMessageAction) Execute(ctx context.Context, grant *action.Grant) error {
	text := a.text(grant.Language)
	if text == "" {
		return fmt.Errorf("%w: text parameter not configured", action.ErrInvalidConfig)
	}

	chatID := grant.ChatID
	if chatID == 0 {
		id, err := strconv.ParseInt(grant.UserID, 10, 64)
		if err != nil {
			return fmt.Errorf("no chat to send to for user %s", grant.UserID)
		}
		chatID = id
	}

	if a.sender == nil {
		logrus.Infof("[NO-OP] would send message to chat %d: %s", chatID, text)
		return nil
	}

	if err := a.sender.SendMessage(ctx, chatID, text); err != nil {
		return fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	return nil
}
