// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package catalog

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the catalog database and runs migrations.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported catalog driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate catalog database: %w", err)
	}

	logrus.Infof("catalog database ready (driver: %s)", driver)
	return db, nil
}

// Repository reads sponsors and maintains the subscription ledger.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository on db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddSponsor inserts a sponsor.
func (r *Repository) AddSponsor(ctx context.Context, s *Sponsor) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("failed to add sponsor %s: %w", s.URL, err)
	}
	return nil
}

// ActiveSponsors returns one page of active sponsors ordered by position.
func (r *Repository) ActiveSponsors(ctx context.Context, offset, limit int) ([]Sponsor, error) {
	var sponsors []Sponsor
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("position ASC").
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&sponsors).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active sponsors: %w", err)
	}
	return sponsors, nil
}

// SubscribedSponsorIDs returns the set of sponsors already in the user's ledger.
func (r *Repository) SubscribedSponsorIDs(ctx context.Context, userID string) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&Subscription{}).
		Where("user_id = ?", userID).
		Pluck("sponsor_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read subscription history for %s: %w", userID, err)
	}

	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// RecordSubscriptions adds sponsors to the user's ledger. Already recorded
// pairs are ignored.
func (r *Repository) RecordSubscriptions(ctx context.Context, userID string, sponsorIDs []uuid.UUID) error {
	if len(sponsorIDs) == 0 {
		return nil
	}

	rows := make([]Subscription, 0, len(sponsorIDs))
	for _, id := range sponsorIDs {
		rows = append(rows, Subscription{UserID: userID, SponsorID: id})
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to record subscriptions for %s: %w", userID, err)
	}

	logrus.Debugf("recorded %d subscriptions for user %s", len(rows), userID)
	return nil
}

// SponsorsByID loads sponsors by primary key.
func (r *Repository) SponsorsByID(ctx context.Context, ids []uuid.UUID) ([]Sponsor, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var sponsors []Sponsor
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&sponsors).Error; err != nil {
		return nil, fmt.Errorf("failed to load sponsors: %w", err)
	}
	return sponsors, nil
}

// AddPromotion inserts a promotion.
func (r *Repository) AddPromotion(ctx context.Context, p *Promotion) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to add promotion %s: %w", p.Title, err)
	}
	return nil
}

// ActivePromotions returns every active promotion ordered by position.
func (r *Repository) ActivePromotions(ctx context.Context) ([]Promotion, error) {
	var promotions []Promotion
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("position ASC").
		Order("created_at ASC").
		Find(&promotions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active promotions: %w", err)
	}
	return promotions, nil
}
