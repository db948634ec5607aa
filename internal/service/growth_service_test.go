package service

import (
	"Watchtower/internal/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSnapshotRepo struct {
	// snaps[orgID] 按日期升序
	snaps map[uint64][]*model.FollowerSnapshot
}

func (f *fakeSnapshotRepo) Record(_ context.Context, orgID uint64, followers int, atDate time.Time) error {
	day := atDate.Truncate(24 * time.Hour)
	for _, s := range f.snaps[orgID] {
		if s.SnapDate.Equal(day) {
			s.Followers = followers
			return nil
		}
	}
	if f.snaps == nil {
		f.snaps = map[uint64][]*model.FollowerSnapshot{}
	}
	f.snaps[orgID] = append(f.snaps[orgID], &model.FollowerSnapshot{
		OrgID: orgID, SnapDate: day, Followers: followers,
	})
	return nil
}

func (f *fakeSnapshotRepo) ValueAtOrBefore(_ context.Context, orgID uint64, date time.Time) (*model.FollowerSnapshot, error) {
	var best *model.FollowerSnapshot
	for _, s := range f.snaps[orgID] {
		if !s.SnapDate.After(date) && (best == nil || s.SnapDate.After(best.SnapDate)) {
			best = s
		}
	}
	return best, nil
}

func (f *fakeSnapshotRepo) MostRecent(_ context.Context, orgID uint64) (*model.FollowerSnapshot, error) {
	return f.ValueAtOrBefore(context.Background(), orgID, time.Unix(1<<40, 0))
}

func (f *fakeSnapshotRepo) Range(_ context.Context, orgID uint64, from, to time.Time) ([]*model.FollowerSnapshot, error) {
	out := make([]*model.FollowerSnapshot, 0)
	for _, s := range f.snaps[orgID] {
		if !s.SnapDate.Before(from) && !s.SnapDate.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeGrowthRepo struct {
	upserted []*model.GrowthPeriod
}

func (f *fakeGrowthRepo) Upsert(_ context.Context, period *model.GrowthPeriod) error {
	f.upserted = append(f.upserted, period)
	return nil
}

func (f *fakeGrowthRepo) ListByOrg(context.Context, uint64, string, int) ([]*model.GrowthPeriod, error) {
	return nil, nil
}

var growthToday = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func snapAt(daysAgo, followers int) *model.FollowerSnapshot {
	return &model.FollowerSnapshot{
		SnapDate:  growthToday.AddDate(0, 0, -daysAgo).Truncate(24 * time.Hour),
		Followers: followers,
	}
}

func newGrowthService(orgs []*model.Organization, snaps map[uint64][]*model.FollowerSnapshot) (*growthServiceImpl, *fakeGrowthRepo) {
	growthRepo := &fakeGrowthRepo{}
	svc := NewGrowthService(
		&fakeOrgRepo{orgs: orgs},
		&fakeSnapshotRepo{snaps: snaps},
		growthRepo,
	).(*growthServiceImpl)
	svc.now = func() time.Time { return growthToday }
	return svc, growthRepo
}

func TestWindowGrowthBasic(t *testing.T) {
	svc, _ := newGrowthService(nil, map[uint64][]*model.FollowerSnapshot{
		1: {snapAt(7, 100), snapAt(0, 150)},
	})

	g, err := svc.WindowGrowth(context.Background(), 1, 7)
	require.NoError(t, err)

	assert.Equal(t, 100, g.StartValue)
	assert.Equal(t, 150, g.EndValue)
	assert.Equal(t, 50, g.Delta)
	assert.Equal(t, 50.00, g.DeltaPct)
}

func TestWindowGrowthZeroStartReportsZeroPct(t *testing.T) {
	svc, _ := newGrowthService(nil, map[uint64][]*model.FollowerSnapshot{
		1: {snapAt(7, 0), snapAt(0, 10)},
	})

	g, err := svc.WindowGrowth(context.Background(), 1, 7)
	require.NoError(t, err)

	assert.Equal(t, 10, g.Delta)
	assert.Equal(t, 0.0, g.DeltaPct)
}

func TestWindowGrowthNoHistory(t *testing.T) {
	svc, _ := newGrowthService(nil, nil)

	g, err := svc.WindowGrowth(context.Background(), 42, 7)
	require.NoError(t, err)

	assert.Equal(t, 0, g.StartValue)
	assert.Equal(t, 0, g.EndValue)
	assert.Equal(t, 0, g.Delta)
	assert.Equal(t, 0.0, g.DeltaPct)
}

func TestWindowGrowthPctRounding(t *testing.T) {
	// (1000 -> 1333) = 33.3%，保留两位
	svc, _ := newGrowthService(nil, map[uint64][]*model.FollowerSnapshot{
		1: {snapAt(7, 1000), snapAt(0, 1333)},
	})

	g, err := svc.WindowGrowth(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 33.30, g.DeltaPct)
}

func TestWindowGrowthRejectsBadDays(t *testing.T) {
	svc, _ := newGrowthService(nil, nil)
	_, err := svc.WindowGrowth(context.Background(), 1, 0)
	assert.ErrorIs(t, err, ErrParamInvalid)
}

func TestTopKByGrowthOrderingAndZeroHistory(t *testing.T) {
	orgs := []*model.Organization{
		{ID: 1, Name: "Alpha", Slug: "alpha"},
		{ID: 2, Name: "Beta", Slug: "beta"},
		{ID: 3, Name: "Gamma", Slug: "gamma"}, // 无快照
		{ID: 4, Name: "Delta", Slug: "delta"},
	}
	svc, _ := newGrowthService(orgs, map[uint64][]*model.FollowerSnapshot{
		1: {snapAt(7, 100), snapAt(0, 150)}, // +50
		2: {snapAt(7, 200), snapAt(0, 210)}, // +10
		4: {snapAt(7, 50), snapAt(0, 100)},  // +50，百分比更高
	})

	got, err := svc.TopKByGrowth(context.Background(), 7, 10)
	require.NoError(t, err)
	require.Len(t, got, 4)

	// 同为 +50，delta 4 的百分比（100%）高于 org 1（50%）
	assert.Equal(t, uint64(4), got[0].OrgID)
	assert.Equal(t, uint64(1), got[1].OrgID)
	assert.Equal(t, uint64(2), got[2].OrgID)
	// 零历史组织排在末位，不被剔除
	assert.Equal(t, uint64(3), got[3].OrgID)
	assert.Equal(t, 0, got[3].Delta)
}

func TestTopKByGrowthTruncatesToK(t *testing.T) {
	orgs := []*model.Organization{
		{ID: 1, Slug: "a"}, {ID: 2, Slug: "b"}, {ID: 3, Slug: "c"},
	}
	svc, _ := newGrowthService(orgs, map[uint64][]*model.FollowerSnapshot{
		1: {snapAt(7, 10), snapAt(0, 30)},
		2: {snapAt(7, 10), snapAt(0, 20)},
		3: {snapAt(7, 10), snapAt(0, 40)},
	})

	got, err := svc.TopKByGrowth(context.Background(), 7, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(3), got[0].OrgID)
	assert.Equal(t, uint64(1), got[1].OrgID)
}

func TestPeriodStartAlignment(t *testing.T) {
	// 2026-08-29 是周六，ISO 周一为 08-24
	ref := time.Date(2026, 8, 29, 15, 30, 0, 0, time.UTC)

	day, err := periodStart(model.PeriodDay, ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), day)

	week, err := periodStart(model.PeriodWeek, ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), week)

	month, err := periodStart(model.PeriodMonth, ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), month)

	year, err := periodStart(model.PeriodYear, ref)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), year)

	_, err = periodStart("decade", ref)
	assert.ErrorIs(t, err, ErrParamInvalid)

	// 周一对齐到自身
	monday := time.Date(2026, 8, 24, 1, 0, 0, 0, time.UTC)
	week, err = periodStart(model.PeriodWeek, monday)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), week)
}

func TestMaterializeAllWritesEveryPeriodType(t *testing.T) {
	orgs := []*model.Organization{
		{ID: 1, Slug: "alpha"},
		{ID: 2, Slug: "beta"},
	}
	svc, growthRepo := newGrowthService(orgs, map[uint64][]*model.FollowerSnapshot{
		1: {snapAt(40, 100), snapAt(0, 160)},
	})

	require.NoError(t, svc.MaterializeAll(context.Background()))

	// 2 组织 × 4 周期
	require.Len(t, growthRepo.upserted, 8)
	types := map[string]int{}
	for _, p := range growthRepo.upserted {
		types[p.PeriodType]++
		assert.False(t, p.ComputedAt.IsZero())
	}
	assert.Equal(t, map[string]int{"day": 2, "week": 2, "month": 2, "year": 2}, types)
}
