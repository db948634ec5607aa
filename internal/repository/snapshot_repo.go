package repository

import (
	"Watchtower/internal/model"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SnapshotRepo interface {
	Record(ctx context.Context, orgID uint64, followers int, atDate time.Time) error
	ValueAtOrBefore(ctx context.Context, orgID uint64, date time.Time) (*model.FollowerSnapshot, error)
	MostRecent(ctx context.Context, orgID uint64) (*model.FollowerSnapshot, error)
	Range(ctx context.Context, orgID uint64, from, to time.Time) ([]*model.FollowerSnapshot, error)
}

type snapshotRepoImpl struct {
	db *gorm.DB
}

func NewSnapshotRepo(db *gorm.DB) SnapshotRepo {
	return &snapshotRepoImpl{db: db}
}

// Record 每组织每自然日一条，同日重复写入覆盖当日值
func (s *snapshotRepoImpl) Record(ctx context.Context, orgID uint64, followers int, atDate time.Time) error {
	snap := &model.FollowerSnapshot{
		OrgID:     orgID,
		SnapDate:  dateOnly(atDate),
		Followers: followers,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "org_id"}, {Name: "snap_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"followers", "updated_at"}),
	}).Create(snap).Error
}

// ValueAtOrBefore 指定日期（含当日）之前最近的一条快照，没有则返回 nil
func (s *snapshotRepoImpl) ValueAtOrBefore(ctx context.Context, orgID uint64, date time.Time) (*model.FollowerSnapshot, error) {
	var snap model.FollowerSnapshot
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND snap_date <= ?", orgID, dateOnly(date)).
		Order("snap_date DESC").
		First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

func (s *snapshotRepoImpl) MostRecent(ctx context.Context, orgID uint64) (*model.FollowerSnapshot, error) {
	var snap model.FollowerSnapshot
	err := s.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("snap_date DESC").
		First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

func (s *snapshotRepoImpl) Range(ctx context.Context, orgID uint64, from, to time.Time) ([]*model.FollowerSnapshot, error) {
	snaps := make([]*model.FollowerSnapshot, 0)
	err := s.db.WithContext(ctx).
		Where("org_id = ? AND snap_date >= ? AND snap_date <= ?", orgID, dateOnly(from), dateOnly(to)).
		Order("snap_date ASC").
		Find(&snaps).Error
	if err != nil {
		return nil, err
	}
	return snaps, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
