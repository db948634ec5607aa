package service

import (
	"Watchtower/internal/model"
	"Watchtower/internal/pkg/es"
	"Watchtower/internal/pkg/util"
	"Watchtower/internal/repository"
	"context"
	"errors"
	log "log/slog"

	"github.com/go-sql-driver/mysql"
)

// OrgService 被跟踪组织的登记与维护
type OrgService interface {
	Register(ctx context.Context, name, handle string) (*model.Organization, error)
	Update(ctx context.Context, orgID uint64, name, handle string) (*model.Organization, error)
	Delete(ctx context.Context, orgID uint64) error
	Get(ctx context.Context, orgID uint64) (*model.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*model.Organization, error)
	List(ctx context.Context) ([]*model.Organization, error)
}

type orgServiceImpl struct {
	orgRepo repository.OrgRepo
	esRepo  es.PostRepo
}

func NewOrgService(orgRepo repository.OrgRepo, esRepo es.PostRepo) OrgService {
	return &orgServiceImpl{orgRepo: orgRepo, esRepo: esRepo}
}

// Register 登记一个新组织，slug 由名称派生并要求唯一。
// handle 可以为空，没有 handle 的组织会被同步流程跳过。
func (s *orgServiceImpl) Register(ctx context.Context, name, handle string) (*model.Organization, error) {
	if name == "" {
		return nil, ErrParamInvalid
	}

	slug := util.Slugify(name)
	if slug == "" {
		return nil, ErrParamInvalid
	}

	existing, err := s.orgRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrOrgSlugExist
	}

	org := &model.Organization{
		Name: name,
		Slug: slug,
	}
	if handle != "" {
		org.Handle = &handle
	}
	if err := s.orgRepo.Create(ctx, org); err != nil {
		// 唯一索引兜底：并发注册同名组织时查重可能都通过
		if isDuplicateError(err) {
			return nil, ErrOrgSlugExist
		}
		return nil, err
	}

	log.InfoContext(ctx, "organization registered", "slug", slug, "handle", handle)
	return org, nil
}

func (s *orgServiceImpl) Update(ctx context.Context, orgID uint64, name, handle string) (*model.Organization, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrOrgNotFound
	}

	if name != "" {
		org.Name = name
	}
	if handle != "" {
		org.Handle = &handle
		// handle 变了，缓存的外部 ID 不再可信，下轮同步重新解析
		org.ExternalID = ""
	}

	if err := s.orgRepo.Update(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// Delete 删除组织并级联清掉它的全部历史。管理操作，有破坏性，调用方确认过再来。
func (s *orgServiceImpl) Delete(ctx context.Context, orgID uint64) error {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return err
	}
	if org == nil {
		return ErrOrgNotFound
	}

	if err := s.orgRepo.Delete(ctx, orgID); err != nil {
		return err
	}

	if err := s.esRepo.DeleteByOrg(ctx, orgID); err != nil {
		log.WarnContext(ctx, "delete org search docs failed", "org", org.Slug, "err", err)
	}

	log.InfoContext(ctx, "organization deleted", "slug", org.Slug)
	return nil
}

func (s *orgServiceImpl) Get(ctx context.Context, orgID uint64) (*model.Organization, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrOrgNotFound
	}
	return org, nil
}

func (s *orgServiceImpl) GetBySlug(ctx context.Context, slug string) (*model.Organization, error) {
	org, err := s.orgRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, ErrOrgNotFound
	}
	return org, nil
}

func (s *orgServiceImpl) List(ctx context.Context) ([]*model.Organization, error) {
	return s.orgRepo.List(ctx)
}

func isDuplicateError(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
