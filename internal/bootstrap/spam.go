// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"context"
	"fmt"
	"strconv"

	"github.com/AccelByte/extend-sponsor-unlock/internal/config"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/catalog"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/spam"
	"github.com/sirupsen/logrus"
)

// PromotionLister is implemented by *catalog.Repository.
type PromotionLister interface {
	ActivePromotions(ctx context.Context) ([]catalog.Promotion, error)
}

// MessageCopier is implemented by *messenger.Messenger.
type MessageCopier interface {
	CopyMessage(ctx context.Context, chatID, fromChatID int64, messageID int) error
}

// CatalogPromotions serves the active catalog promotions to every user.
type CatalogPromotions struct {
	catalog PromotionLister
}

func (c CatalogPromotions) Promotions(ctx context.Context, userID string) ([]spam.Promotion, error) {
	rows, err := c.catalog.ActivePromotions(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]spam.Promotion, 0, len(rows))
	for _, row := range rows {
		out = append(out, spam.Promotion{
			ID:         row.ID.String(),
			FromChatID: row.FromChatID,
			MessageID:  row.MessageID,
		})
	}
	return out, nil
}

// ChatSender copies a promotion into the private chat of the user. Private
// chat IDs equal user IDs.
type ChatSender struct {
	copier MessageCopier
}

func (s ChatSender) SendPromotion(ctx context.Context, userID string, p spam.Promotion) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("user %s has no private chat: %w", userID, err)
	}
	return s.copier.CopyMessage(ctx, chatID, p.FromChatID, p.MessageID)
}

// InitSpamScheduler creates the promotion scheduler, or returns nil when
// promotions are disabled.
func InitSpamScheduler(cfg *config.Config, promotions PromotionLister, copier MessageCopier) *spam.Scheduler {
	if !cfg.SpamEnabled {
		logrus.Info("promotion spam disabled")
		return nil
	}

	scheduler := spam.NewScheduler(spam.Config{
		RepeatPerPromotion: cfg.SpamRepeatPerPromotion,
		RepeatInterval:     cfg.SpamRepeatInterval,
		BetweenInterval:    cfg.SpamBetweenInterval,
		MaxRetries:         cfg.SpamMaxRetries,
		RetryInterval:      cfg.SpamRetryInterval,
		Locks: spam.LockConfig{
			IdleTTL:    cfg.SpamLockIdleTTL,
			MaxEntries: cfg.SpamMaxLocks,
		},
	}, CatalogPromotions{catalog: promotions}, ChatSender{copier: copier})

	logrus.Infof("initialized promotion scheduler (repeat: %d, interval: %s)",
		cfg.SpamRepeatPerPromotion, cfg.SpamRepeatInterval)
	return scheduler
}
