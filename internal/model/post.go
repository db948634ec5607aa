package model

import (
	"time"
)

type Post struct {
	ID            uint64    `gorm:"primaryKey" json:"id"`
	OrgID         uint64    `gorm:"not null;index:idx_org_external,unique" json:"org_id"`
	ExternalID    string    `gorm:"type:varchar(64);not null;index:idx_org_external,unique" json:"external_id"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	LikesCount    int       `gorm:"not null;default:0" json:"likes_count"`
	RepostsCount  int       `gorm:"not null;default:0" json:"reposts_count"`
	RepliesCount  int       `gorm:"not null;default:0" json:"replies_count"`
	QuotesCount   int       `gorm:"not null;default:0" json:"quotes_count"`
	Mentions      []string  `gorm:"serializer:json" json:"mentions"`
	Tags          []string  `gorm:"serializer:json" json:"tags"`
	Links         []string  `gorm:"serializer:json" json:"links"`
	URL           string    `gorm:"type:varchar(512)" json:"url"`
	PostedAt      time.Time `gorm:"not null;index:idx_org_posted" json:"posted_at"`
	FirstSyncedAt time.Time `gorm:"autoCreateTime" json:"first_synced_at"`
	LastUpdatedAt time.Time `gorm:"autoUpdateTime" json:"last_updated_at"`
}

func (Post) TableName() string {
	return "posts"
}
