package service

import (
	"Watchtower/internal/model"
	"Watchtower/internal/pkg/consts"
	redispkg "Watchtower/internal/pkg/redis"
	"Watchtower/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"math"
	"sort"
	"time"

	"github.com/goccy/go-json"
)

// Growth 一个组织在某窗口内的粉丝增长
type Growth struct {
	OrgID      uint64  `json:"org_id"`
	OrgName    string  `json:"org_name"`
	OrgSlug    string  `json:"org_slug"`
	StartValue int     `json:"start_value"`
	EndValue   int     `json:"end_value"`
	Delta      int     `json:"delta"`
	DeltaPct   float64 `json:"delta_pct"`
}

// GrowthService 基于每日快照的增长计算。GrowthPeriod 行只是物化缓存，
// 随时可由快照历史重算覆盖。
type GrowthService interface {
	WindowGrowth(ctx context.Context, orgID uint64, days int) (*Growth, error)
	CalendarGrowth(ctx context.Context, orgID uint64, periodType string) (*Growth, error)
	TopKByGrowth(ctx context.Context, days, k int) ([]*Growth, error)
	MaterializeAll(ctx context.Context) error
	ListPeriods(ctx context.Context, orgID uint64, periodType string, limit int) ([]*model.GrowthPeriod, error)
}

type growthServiceImpl struct {
	orgRepo      repository.OrgRepo
	snapshotRepo repository.SnapshotRepo
	growthRepo   repository.GrowthRepo
	now          func() time.Time
}

func NewGrowthService(orgRepo repository.OrgRepo, snapshotRepo repository.SnapshotRepo, growthRepo repository.GrowthRepo) GrowthService {
	return &growthServiceImpl{
		orgRepo:      orgRepo,
		snapshotRepo: snapshotRepo,
		growthRepo:   growthRepo,
		now:          time.Now,
	}
}

// growthBetween 取 start/end 两个日期上的快照值并求差。
// 任一端缺快照按 0 处理：新组织没有历史是常态，不算错误。
func (s *growthServiceImpl) growthBetween(ctx context.Context, orgID uint64, startDate, endDate time.Time) (*Growth, error) {
	startVal := 0
	if snap, err := s.snapshotRepo.ValueAtOrBefore(ctx, orgID, startDate); err != nil {
		return nil, err
	} else if snap != nil {
		startVal = snap.Followers
	}

	endVal := 0
	if snap, err := s.snapshotRepo.ValueAtOrBefore(ctx, orgID, endDate); err != nil {
		return nil, err
	} else if snap != nil {
		endVal = snap.Followers
	}

	delta := endVal - startVal
	pct := 0.0
	// 起点为 0 时百分比按 0 报，不报无穷
	if startVal > 0 {
		pct = math.Round(float64(delta)/float64(startVal)*100*100) / 100
	}

	return &Growth{
		OrgID:      orgID,
		StartValue: startVal,
		EndValue:   endVal,
		Delta:      delta,
		DeltaPct:   pct,
	}, nil
}

func (s *growthServiceImpl) WindowGrowth(ctx context.Context, orgID uint64, days int) (*Growth, error) {
	if days <= 0 {
		return nil, ErrParamInvalid
	}
	today := s.now()
	return s.growthBetween(ctx, orgID, today.AddDate(0, 0, -days), today)
}

// periodStart 日历对齐的周期起点：日取当天，周取 ISO 周一，月取月初，年取年初
func periodStart(periodType string, ref time.Time) (time.Time, error) {
	y, m, d := ref.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, ref.Location())
	switch periodType {
	case model.PeriodDay:
		return day, nil
	case model.PeriodWeek:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset), nil
	case model.PeriodMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, ref.Location()), nil
	case model.PeriodYear:
		return time.Date(y, 1, 1, 0, 0, 0, 0, ref.Location()), nil
	default:
		return time.Time{}, ErrParamInvalid
	}
}

// CalendarGrowth 日历对齐周期增长，结果按组织缓存到当日零点
func (s *growthServiceImpl) CalendarGrowth(ctx context.Context, orgID uint64, periodType string) (*Growth, error) {
	today := s.now()
	start, err := periodStart(periodType, today)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("%s%d:%s", consts.GrowthWindowKey, orgID, periodType)
	if cached, err := redispkg.GetValue(ctx, cacheKey); err == nil && cached != "" {
		var out Growth
		if err := json.Unmarshal([]byte(cached), &out); err == nil {
			return &out, nil
		}
	}

	g, err := s.growthBetween(ctx, orgID, start, today)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(g); err == nil {
		redispkg.SetWithExpiration(ctx, cacheKey, string(data), untilMidnight(today))
	}
	return g, nil
}

// TopKByGrowth 全量组织按窗口增量排序取前 k。没有任何快照的组织
// 以零增长参与排序，不会被剔除。结果缓存到 redis，当日零点过期。
func (s *growthServiceImpl) TopKByGrowth(ctx context.Context, days, k int) ([]*Growth, error) {
	if days <= 0 || k <= 0 {
		return nil, ErrParamInvalid
	}

	cacheKey := fmt.Sprintf("%s%d:%d", consts.GrowthTopKKey, days, k)
	if cached, err := redispkg.GetValue(ctx, cacheKey); err == nil && cached != "" {
		var out []*Growth
		if err := json.Unmarshal([]byte(cached), &out); err == nil {
			return out, nil
		}
	}

	orgs, err := s.orgRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	growths := make([]*Growth, 0, len(orgs))
	for _, org := range orgs {
		g, err := s.WindowGrowth(ctx, org.ID, days)
		if err != nil {
			return nil, err
		}
		g.OrgName = org.Name
		g.OrgSlug = org.Slug
		growths = append(growths, g)
	}

	// 增量降序，同增量按百分比降序，再按 id 升序保证稳定
	sort.Slice(growths, func(i, j int) bool {
		if growths[i].Delta != growths[j].Delta {
			return growths[i].Delta > growths[j].Delta
		}
		if growths[i].DeltaPct != growths[j].DeltaPct {
			return growths[i].DeltaPct > growths[j].DeltaPct
		}
		return growths[i].OrgID < growths[j].OrgID
	})

	if k < len(growths) {
		growths = growths[:k]
	}

	if data, err := json.Marshal(growths); err == nil {
		redispkg.SetWithExpiration(ctx, cacheKey, string(data), untilMidnight(s.now()))
	}
	return growths, nil
}

func untilMidnight(now time.Time) time.Duration {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	return midnight.Sub(now)
}

// MaterializeAll 为所有组织重算四种日历周期并覆盖写入 growth_periods
func (s *growthServiceImpl) MaterializeAll(ctx context.Context) error {
	orgs, err := s.orgRepo.List(ctx)
	if err != nil {
		return err
	}

	today := s.now()
	periodTypes := []string{model.PeriodDay, model.PeriodWeek, model.PeriodMonth, model.PeriodYear}

	for _, org := range orgs {
		for _, pt := range periodTypes {
			start, err := periodStart(pt, today)
			if err != nil {
				return err
			}
			g, err := s.growthBetween(ctx, org.ID, start, today)
			if err != nil {
				return err
			}

			period := &model.GrowthPeriod{
				OrgID:       org.ID,
				PeriodType:  pt,
				PeriodStart: start,
				PeriodEnd:   today,
				StartValue:  g.StartValue,
				EndValue:    g.EndValue,
				Delta:       g.Delta,
				DeltaPct:    g.DeltaPct,
				ComputedAt:  s.now(),
			}
			if err := s.growthRepo.Upsert(ctx, period); err != nil {
				log.ErrorContext(ctx, "materialize growth period failed",
					"org", org.Slug, "period", pt, "err", err)
				return err
			}
		}
	}
	return nil
}

func (s *growthServiceImpl) ListPeriods(ctx context.Context, orgID uint64, periodType string, limit int) ([]*model.GrowthPeriod, error) {
	switch periodType {
	case model.PeriodDay, model.PeriodWeek, model.PeriodMonth, model.PeriodYear:
	default:
		return nil, ErrParamInvalid
	}
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	return s.growthRepo.ListByOrg(ctx, orgID, periodType, limit)
}
