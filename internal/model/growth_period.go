package model

import "time"

const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// GrowthPeriod 由快照推导出的增长缓存行，重算覆盖写
type GrowthPeriod struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	OrgID       uint64    `gorm:"not null;uniqueIndex:idx_org_period" json:"org_id"`
	PeriodType  string    `gorm:"type:varchar(8);not null;uniqueIndex:idx_org_period" json:"period_type"`
	PeriodStart time.Time `gorm:"type:date;not null;uniqueIndex:idx_org_period" json:"period_start"`
	PeriodEnd   time.Time `gorm:"type:date;not null" json:"period_end"`
	StartValue  int       `gorm:"not null;default:0" json:"start_value"`
	EndValue    int       `gorm:"not null;default:0" json:"end_value"`
	Delta       int       `gorm:"not null;default:0" json:"delta"`
	DeltaPct    float64   `gorm:"type:decimal(10,2);not null;default:0" json:"delta_pct"`
	ComputedAt  time.Time `json:"computed_at"`
}

func (GrowthPeriod) TableName() string {
	return "growth_periods"
}
