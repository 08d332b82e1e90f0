package repository

import (
	"context"

	"github.com/chahe-dridi/prelevements-backend/internal/model"

	"gorm.io/gorm"
)

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, action string, page, limit int) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	db := GetDB(ctx, r.db)

	var total int64
	countQuery := db.Model(&model.AuditLog{})
	if action != "" {
		countQuery = countQuery.Where("action = ?", action)
	}
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	query := db.Preload("User").Order("created_at desc")
	if action != "" {
		query = query.Where("action = ?", action)
	}

	var logs []model.AuditLog
	if err := query.Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
