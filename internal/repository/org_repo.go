package repository

import (
	"Watchtower/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type OrgRepo interface {
	Create(ctx context.Context, org *model.Organization) error
	Update(ctx context.Context, org *model.Organization) error
	Delete(ctx context.Context, orgID uint64) error
	GetByID(ctx context.Context, orgID uint64) (*model.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*model.Organization, error)
	List(ctx context.Context) ([]*model.Organization, error)
	SaveExternalID(ctx context.Context, orgID uint64, externalID string) error
}

type orgRepoImpl struct {
	db *gorm.DB
}

func NewOrgRepo(db *gorm.DB) OrgRepo {
	return &orgRepoImpl{db: db}
}

func (s *orgRepoImpl) Create(ctx context.Context, org *model.Organization) error {
	return s.db.WithContext(ctx).Create(org).Error
}

func (s *orgRepoImpl) Update(ctx context.Context, org *model.Organization) error {
	return s.db.WithContext(ctx).Save(org).Error
}

// Delete 删除组织并级联清理其全部历史数据，管理端的破坏性操作
func (s *orgRepoImpl) Delete(ctx context.Context, orgID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ?", orgID).Delete(&model.Post{}).Error; err != nil {
			return err
		}
		if err := tx.Where("org_id = ?", orgID).Delete(&model.FollowerSnapshot{}).Error; err != nil {
			return err
		}
		if err := tx.Where("org_id = ?", orgID).Delete(&model.GrowthPeriod{}).Error; err != nil {
			return err
		}
		if err := tx.Where("org_id = ?", orgID).Delete(&model.SyncCursor{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Organization{}, orgID).Error
	})
}

func (s *orgRepoImpl) GetByID(ctx context.Context, orgID uint64) (*model.Organization, error) {
	var org model.Organization
	err := s.db.WithContext(ctx).First(&org, orgID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (s *orgRepoImpl) GetBySlug(ctx context.Context, slug string) (*model.Organization, error) {
	var org model.Organization
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (s *orgRepoImpl) List(ctx context.Context) ([]*model.Organization, error) {
	orgs := make([]*model.Organization, 0)
	if err := s.db.WithContext(ctx).Order("id").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

func (s *orgRepoImpl) SaveExternalID(ctx context.Context, orgID uint64, externalID string) error {
	return s.db.WithContext(ctx).Model(&model.Organization{}).
		Where("id = ?", orgID).
		Update("external_id", externalID).Error
}
