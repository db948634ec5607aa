package model

import "time"

// SyncCursor 每个组织一行，记录最近一次成功摄取的帖子外部 ID
type SyncCursor struct {
	OrgID      uint64    `gorm:"primaryKey" json:"org_id"`
	LastPostID string    `gorm:"type:varchar(64);not null" json:"last_post_id"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (SyncCursor) TableName() string {
	return "sync_cursors"
}
