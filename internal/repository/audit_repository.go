package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"portfolio-site/internal/model"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, event *model.AuditEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create audit event failed: %w", err)
	}
	return nil
}

// PublishAudit writes the event straight to the table. Used when no broker
// is configured.
func (r *AuditRepository) PublishAudit(ctx context.Context, event model.AuditEvent) error {
	return r.Create(ctx, &event)
}

// ListRecent returns newest events first. An empty action matches all.
func (r *AuditRepository) ListRecent(ctx context.Context, action string, limit int) ([]model.AuditEvent, error) {
	var events []model.AuditEvent
	if err := recentQuery(r.db.WithContext(ctx), action, limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list audit events failed: %w", err)
	}
	return events, nil
}

func recentQuery(db *gorm.DB, action string, limit int) *gorm.DB {
	if limit <= 0 || limit > maxAuditLimit {
		limit = defaultAuditLimit
	}
	query := db.Model(&model.AuditEvent{})
	if action != "" {
		query = query.Where("action = ?", action)
	}
	return query.Order("created_at DESC").Limit(limit)
}
