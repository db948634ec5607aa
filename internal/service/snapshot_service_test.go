package service

import (
	"Watchtower/internal/model"
	"Watchtower/internal/pkg/quota"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSnapshotService(orgs []*model.Organization, client *fakeXClient) (*snapshotServiceImpl, *fakeSnapshotRepo) {
	snapRepo := &fakeSnapshotRepo{snaps: map[uint64][]*model.FollowerSnapshot{}}
	tracker := quota.NewWithClock(quota.Config{
		WindowLimit:     1000,
		Window:          15 * time.Minute,
		MonthlyRequests: 100000,
		MonthlyItems:    100000,
	}, func() time.Time { return growthToday }, func(context.Context, time.Duration) error { return nil })

	svc := NewSnapshotService(&fakeOrgRepo{orgs: orgs}, snapRepo, client, tracker).(*snapshotServiceImpl)
	svc.now = func() time.Time { return growthToday }
	return svc, snapRepo
}

func TestCaptureAllRecordsDailyValues(t *testing.T) {
	client := &fakeXClient{
		followers: map[string]int{"acme": 1200, "beta": 40},
	}
	svc, snapRepo := newSnapshotService([]*model.Organization{
		{ID: 1, Slug: "acme", Handle: handlePtr("acme")},
		{ID: 2, Slug: "beta", Handle: handlePtr("beta")},
		{ID: 3, Slug: "mute"}, // 无账号名，不采集
	}, client)

	require.NoError(t, svc.CaptureAll(context.Background()))

	assert.Equal(t, 1, client.calls)
	require.Len(t, snapRepo.snaps[1], 1)
	assert.Equal(t, 1200, snapRepo.snaps[1][0].Followers)
	require.Len(t, snapRepo.snaps[2], 1)
	assert.Equal(t, 40, snapRepo.snaps[2][0].Followers)
	assert.Empty(t, snapRepo.snaps[3])
}

func TestCaptureAllSameDayOverwrites(t *testing.T) {
	client := &fakeXClient{followers: map[string]int{"acme": 100}}
	svc, snapRepo := newSnapshotService([]*model.Organization{
		{ID: 1, Slug: "acme", Handle: handlePtr("acme")},
	}, client)

	require.NoError(t, svc.CaptureAll(context.Background()))
	client.followers["acme"] = 105
	require.NoError(t, svc.CaptureAll(context.Background()))

	// 同日重复采集覆盖当日值，不追加行
	require.Len(t, snapRepo.snaps[1], 1)
	assert.Equal(t, 105, snapRepo.snaps[1][0].Followers)
}

func TestCaptureAllNoHandlesMakesNoCalls(t *testing.T) {
	client := &fakeXClient{}
	svc, _ := newSnapshotService([]*model.Organization{{ID: 1, Slug: "mute"}}, client)

	require.NoError(t, svc.CaptureAll(context.Background()))
	assert.Equal(t, 0, client.calls)
}

func TestHistoryRejectsInvertedRange(t *testing.T) {
	svc, _ := newSnapshotService(nil, &fakeXClient{})
	_, err := svc.History(context.Background(), 1, growthToday, growthToday.AddDate(0, 0, -7))
	assert.ErrorIs(t, err, ErrParamInvalid)
}
