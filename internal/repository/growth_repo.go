package repository

import (
	"Watchtower/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GrowthRepo interface {
	Upsert(ctx context.Context, period *model.GrowthPeriod) error
	ListByOrg(ctx context.Context, orgID uint64, periodType string, limit int) ([]*model.GrowthPeriod, error)
}

type growthRepoImpl struct {
	db *gorm.DB
}

func NewGrowthRepo(db *gorm.DB) GrowthRepo {
	return &growthRepoImpl{db: db}
}

// Upsert 以 (org_id, period_type, period_start) 为键，重算覆盖写
func (s *growthRepoImpl) Upsert(ctx context.Context, period *model.GrowthPeriod) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "org_id"}, {Name: "period_type"}, {Name: "period_start"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"period_end", "start_value", "end_value", "delta", "delta_pct", "computed_at",
		}),
	}).Create(period).Error
}

func (s *growthRepoImpl) ListByOrg(ctx context.Context, orgID uint64, periodType string, limit int) ([]*model.GrowthPeriod, error) {
	periods := make([]*model.GrowthPeriod, 0)
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND period_type = ?", orgID, periodType).
		Order("period_start DESC").
		Limit(limit).
		Find(&periods).Error
	if err != nil {
		return nil, err
	}
	return periods, nil
}
