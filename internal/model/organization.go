package model

import (
	"time"
)

// Organization 被跟踪的组织账号
type Organization struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug       string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_org_slug" json:"slug"`
	Handle     *string   `gorm:"type:varchar(64)" json:"handle"` // 外部平台账号名，为空时同步跳过
	ExternalID string    `gorm:"type:varchar(64)" json:"external_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Organization) TableName() string {
	return "organizations"
}
