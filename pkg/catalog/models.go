// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package catalog stores the internal sponsor list and the per-user
// subscription history ledger.
package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sponsor is an entry of the internal offer catalog.
type Sponsor struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	URL      string    `gorm:"uniqueIndex;not null"`
	Title    string
	Kind     string    `gorm:"not null;default:channel"`
	ChatID   int64     `gorm:"index"`
	Position int       `gorm:"index"`
	Active   bool      `gorm:"index"`

	// CanCheck is false when the bot has no access to the sponsor chat and
	// membership cannot be verified.
	CanCheck bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate assigns a primary key when none was set.
func (s *Sponsor) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Subscription records that a user was seen subscribed to a sponsor.
type Subscription struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"size:64;uniqueIndex:idx_subscription_user_sponsor"`
	SponsorID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_subscription_user_sponsor"`
	CreatedAt time.Time
}

// BeforeCreate assigns a primary key when none was set.
func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Promotion is a message the bot forwards to inactive users. It is copied
// from a source chat so operators can edit it in Telegram.
type Promotion struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title      string
	FromChatID int64 `gorm:"not null"`
	MessageID  int   `gorm:"not null"`
	Position   int   `gorm:"index"`
	Active     bool  `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate assigns a primary key when none was set.
func (p *Promotion) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// AutoMigrate performs all schema migrations for the catalog.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Sponsor{},
		&Subscription{},
		&Promotion{},
	)
}
