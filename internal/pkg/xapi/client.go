package xapi

import (
	"Watchtower/internal/api/config"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// RawPost 外部 API 返回的松散帖子载荷。字段名、大小写与嵌套位置都不可信，
// 统一交给 service 层的校验函数映射成强类型记录。
type RawPost map[string]any

// AccountMetric 单个账号的粉丝数
type AccountMetric struct {
	Handle    string `json:"handle"`
	Followers int    `json:"followers"`
}

// Client 外部社交平台 API 的调用契约。
// FetchPostsSince 的 sinceID 语义为排他：只返回严格新于 sinceID 的帖子。
type Client interface {
	ResolveHandle(ctx context.Context, handle string) (string, error)
	FetchPostsSince(ctx context.Context, externalID, sinceID string, pageSize int) ([]RawPost, []byte, error)
	FetchPostsByIDs(ctx context.Context, ids []string) ([]RawPost, []byte, error)
	FetchFollowerCounts(ctx context.Context, handles []string) ([]AccountMetric, error)
}

type restyClient struct {
	http *resty.Client
}

// NewClient 构建 resty 客户端，bearer 认证，短超时快失败
func NewClient(cfg config.XAPIConfig) Client {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.Token).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")

	return &restyClient{http: c}
}

// classify 把 HTTP 层的失败翻译成引擎认识的错误类别
func classify(resp *resty.Response, err error, op string) error {
	if err != nil {
		return errors.Wrap(err, op)
	}
	switch resp.StatusCode() {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return errors.Wrapf(ErrRateLimited, "%s: status %d", op, resp.StatusCode())
	case http.StatusNotFound:
		return errors.Wrap(ErrHandleNotFound, op)
	}
	if resp.IsError() {
		return errors.Errorf("%s: unexpected status %d: %s", op, resp.StatusCode(), resp.String())
	}
	return nil
}

func (c *restyClient) ResolveHandle(ctx context.Context, handle string) (string, error) {
	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/users/by/username/" + strings.TrimPrefix(handle, "@"))
	if err := classify(resp, err, "resolve handle"); err != nil {
		return "", err
	}

	if out.Data.ID == "" {
		return "", errors.Wrap(ErrHandleNotFound, handle)
	}
	return out.Data.ID, nil
}

func (c *restyClient) FetchPostsSince(ctx context.Context, externalID, sinceID string, pageSize int) ([]RawPost, []byte, error) {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("max_results", fmt.Sprintf("%d", pageSize))
	if sinceID != "" {
		req.SetQueryParam("since_id", sinceID)
	}

	resp, err := req.Get("/users/" + externalID + "/posts")
	if err := classify(resp, err, "fetch posts since"); err != nil {
		return nil, nil, err
	}

	return decodePosts(resp.Body(), "fetch posts since")
}

func (c *restyClient) FetchPostsByIDs(ctx context.Context, ids []string) ([]RawPost, []byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("ids", strings.Join(ids, ",")).
		Get("/posts")
	if err := classify(resp, err, "fetch posts by ids"); err != nil {
		return nil, nil, err
	}

	return decodePosts(resp.Body(), "fetch posts by ids")
}

func (c *restyClient) FetchFollowerCounts(ctx context.Context, handles []string) ([]AccountMetric, error) {
	var out struct {
		Data []struct {
			Username      string `json:"username"`
			PublicMetrics struct {
				FollowersCount int `json:"followers_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetQueryParam("usernames", strings.Join(handles, ",")).
		Get("/users/by")
	if err := classify(resp, err, "fetch follower counts"); err != nil {
		return nil, err
	}

	metrics := make([]AccountMetric, 0, len(out.Data))
	for _, d := range out.Data {
		metrics = append(metrics, AccountMetric{
			Handle:    d.Username,
			Followers: d.PublicMetrics.FollowersCount,
		})
	}
	return metrics, nil
}

// decodePosts 只解开最外层 data 数组，逐条保持松散结构
func decodePosts(body []byte, op string) ([]RawPost, []byte, error) {
	var out struct {
		Data []RawPost `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, nil, errors.Wrap(err, op)
	}
	return out.Data, body, nil
}
