package es

import "time"

// PostES 写入 ES 的帖子文档，id 用 "orgID:externalID" 保证全局唯一
type PostES struct {
	OrgID        uint64    `json:"org_id"`
	OrgSlug      string    `json:"org_slug"`
	ExternalID   string    `json:"external_id"`
	Content      string    `json:"content"`
	Tags         []string  `json:"tags"`
	Mentions     []string  `json:"mentions"`
	LikesCount   int       `json:"likes_count"`
	RepostsCount int       `json:"reposts_count"`
	URL          string    `json:"url"`
	PostedAt     time.Time `json:"posted_at"`
}
