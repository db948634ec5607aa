package repository

import (
	"Watchtower/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostRepo interface {
	Upsert(ctx context.Context, post *model.Post) error
	ExistingIDs(ctx context.Context, orgID uint64, externalIDs []string) (map[string]struct{}, error)
	RecentExternalIDs(ctx context.Context, orgID uint64, since time.Time) ([]string, error)
	ListByOrg(ctx context.Context, orgID uint64, page, size int) ([]*model.Post, error)
	CountByOrg(ctx context.Context, orgID uint64) (int64, error)
}

type postRepoImpl struct {
	db *gorm.DB
}

func NewPostRepo(db *gorm.DB) PostRepo {
	return &postRepoImpl{db: db}
}

// Upsert 以 (org_id, external_id) 为键写入；重复摄取同一条帖子只更新
// 正文与计数，不产生新行
func (s *postRepoImpl) Upsert(ctx context.Context, post *model.Post) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "org_id"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"content", "likes_count", "reposts_count", "replies_count", "quotes_count",
			"mentions", "tags", "links", "url", "last_updated_at",
		}),
	}).Create(post).Error
}

// ExistingIDs 返回给定外部 ID 中已入库的子集，供引擎区分新增与更新
func (s *postRepoImpl) ExistingIDs(ctx context.Context, orgID uint64, externalIDs []string) (map[string]struct{}, error) {
	if len(externalIDs) == 0 {
		return map[string]struct{}{}, nil
	}

	ids := make([]string, 0, len(externalIDs))
	err := s.db.WithContext(ctx).Model(&model.Post{}).
		Where("org_id = ? AND external_id IN ?", orgID, externalIDs).
		Pluck("external_id", &ids).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// RecentExternalIDs 最近窗口内已入库帖子的外部 ID，按发布时间倒序
func (s *postRepoImpl) RecentExternalIDs(ctx context.Context, orgID uint64, since time.Time) ([]string, error) {
	ids := make([]string, 0)
	err := s.db.WithContext(ctx).Model(&model.Post{}).
		Where("org_id = ? AND posted_at >= ?", orgID, since).
		Order("posted_at DESC").
		Pluck("external_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *postRepoImpl) ListByOrg(ctx context.Context, orgID uint64, page, size int) ([]*model.Post, error) {
	posts := make([]*model.Post, 0)
	err := s.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("posted_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *postRepoImpl) CountByOrg(ctx context.Context, orgID uint64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Post{}).
		Where("org_id = ?", orgID).
		Count(&count).Error
	return count, err
}
