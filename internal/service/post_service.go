package service

import (
	"Watchtower/internal/model"
	"Watchtower/internal/pkg/es"
	"Watchtower/internal/repository"
	"context"
)

// PostService 已入库帖子的查询：列表走 MySQL，全文搜索走 ES
type PostService interface {
	ListByOrg(ctx context.Context, orgID uint64, page, size int) ([]*model.Post, int64, error)
	Search(ctx context.Context, keyword string, page, size int) ([]*es.PostES, int64, error)
}

type postServiceImpl struct {
	orgRepo  repository.OrgRepo
	postRepo repository.PostRepo
	esRepo   es.PostRepo
}

func NewPostService(orgRepo repository.OrgRepo, postRepo repository.PostRepo, esRepo es.PostRepo) PostService {
	return &postServiceImpl{orgRepo: orgRepo, postRepo: postRepo, esRepo: esRepo}
}

func (s *postServiceImpl) ListByOrg(ctx context.Context, orgID uint64, page, size int) ([]*model.Post, int64, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}

	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, 0, err
	}
	if org == nil {
		return nil, 0, ErrOrgNotFound
	}

	posts, err := s.postRepo.ListByOrg(ctx, orgID, page, size)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.postRepo.CountByOrg(ctx, orgID)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (s *postServiceImpl) Search(ctx context.Context, keyword string, page, size int) ([]*es.PostES, int64, error) {
	if keyword == "" {
		return nil, 0, ErrParamInvalid
	}
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 50 {
		size = 20
	}
	return s.esRepo.SearchPosts(ctx, keyword, (page-1)*size, size)
}
