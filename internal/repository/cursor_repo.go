package repository

import (
	"Watchtower/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CursorRepo interface {
	Get(ctx context.Context, orgID uint64) (*model.SyncCursor, error)
	Save(ctx context.Context, orgID uint64, lastPostID string) error
}

type cursorRepoImpl struct {
	db *gorm.DB
}

func NewCursorRepo(db *gorm.DB) CursorRepo {
	return &cursorRepoImpl{db: db}
}

// Get 游标缺失时返回 nil，表示从头开始拉取
func (s *cursorRepoImpl) Get(ctx context.Context, orgID uint64) (*model.SyncCursor, error) {
	var cursor model.SyncCursor
	err := s.db.WithContext(ctx).First(&cursor, "org_id = ?", orgID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cursor, nil
}

// Save 每组织一行覆盖写，只在对应批次全部落库后调用
func (s *cursorRepoImpl) Save(ctx context.Context, orgID uint64, lastPostID string) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "org_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_post_id", "updated_at"}),
	}).Create(&model.SyncCursor{
		OrgID:      orgID,
		LastPostID: lastPostID,
	}).Error
}
