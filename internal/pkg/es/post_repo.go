package es

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types"
	"github.com/elastic/go-elasticsearch/v8/typedapi/types/enums/conflicts"
	"github.com/goccy/go-json"
)

const MaxSearchDepth = 400

type PostRepo interface {
	IndexPost(ctx context.Context, post *PostES) error
	SearchPosts(ctx context.Context, queryText string, from, size int) ([]*PostES, int64, error)
	DeleteByOrg(ctx context.Context, orgID uint64) error
}

type PostRepoImpl struct {
	client *elasticsearch.TypedClient
}

func NewPostRepo(client *elasticsearch.TypedClient) PostRepo {
	return &PostRepoImpl{client: client}
}

func docID(post *PostES) string {
	return fmt.Sprintf("%d:%s", post.OrgID, post.ExternalID)
}

// IndexPost 覆盖写入单条文档
func (s *PostRepoImpl) IndexPost(ctx context.Context, post *PostES) error {
	_, err := s.client.Index(PostIndex).
		Id(docID(post)).
		Document(post).
		Do(ctx)
	return err
}

// SearchPosts 对正文与标签做全文检索，按相关度返回
func (s *PostRepoImpl) SearchPosts(ctx context.Context, queryText string, from, size int) ([]*PostES, int64, error) {
	if from >= MaxSearchDepth {
		return []*PostES{}, 0, nil
	}

	res, err := s.client.Search().
		Index(PostIndex).
		From(from).
		Size(size).
		Query(&types.Query{
			MultiMatch: &types.MultiMatchQuery{
				Query:  queryText,
				Fields: []string{"content^2", "tags", "mentions"},
			},
		}).
		Do(ctx)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if res.Hits.Total != nil {
		total = res.Hits.Total.Value
	}

	posts := make([]*PostES, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var post PostES
		if err := json.Unmarshal(hit.Source_, &post); err != nil {
			return nil, 0, err
		}
		posts = append(posts, &post)
	}
	return posts, total, nil
}

// DeleteByOrg 组织删除时清掉其全部文档
func (s *PostRepoImpl) DeleteByOrg(ctx context.Context, orgID uint64) error {
	_, err := s.client.DeleteByQuery(PostIndex).
		Query(&types.Query{
			Term: map[string]types.TermQuery{
				"org_id": {Value: orgID},
			},
		}).
		Conflicts(conflicts.Proceed).
		Do(ctx)
	return err
}
