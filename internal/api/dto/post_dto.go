package dto

import "time"

// PostDTO 帖子
type PostDTO struct {
	OrgID         uint64    `json:"org_id"`
	ExternalID    string    `json:"external_id"`
	Content       string    `json:"content"`
	LikesCount    int       `json:"likes_count"`
	RepostsCount  int       `json:"reposts_count"`
	RepliesCount  int       `json:"replies_count"`
	QuotesCount   int       `json:"quotes_count"`
	Mentions      []string  `json:"mentions"`
	Tags          []string  `json:"tags"`
	Links         []string  `json:"links"`
	URL           string    `json:"url"`
	PostedAt      time.Time `json:"posted_at"`
	FirstSyncedAt time.Time `json:"first_synced_at"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}
