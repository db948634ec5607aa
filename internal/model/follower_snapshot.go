package model

import "time"

// FollowerSnapshot 每个组织每个自然日最多一条，当日重复写入覆盖
type FollowerSnapshot struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	OrgID     uint64    `gorm:"not null;uniqueIndex:idx_org_date" json:"org_id"`
	SnapDate  time.Time `gorm:"type:date;not null;uniqueIndex:idx_org_date;column:snap_date" json:"snap_date"`
	Followers int       `gorm:"not null;default:0" json:"followers"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (FollowerSnapshot) TableName() string {
	return "follower_snapshots"
}
