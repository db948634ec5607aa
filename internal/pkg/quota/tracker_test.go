package quota

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock 手动推进的时钟，sleep 直接推进时间
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.now = c.now.Add(d)
	return nil
}

func newTestTracker(cfg Config) (*Tracker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)}
	return NewWithClock(cfg, clock.Now, clock.Sleep), clock
}

func TestCanProceedEmptyWindow(t *testing.T) {
	tracker, _ := newTestTracker(DefaultConfig())
	assert.True(t, tracker.CanProceed())
}

func TestWindowSaturation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WindowLimit = 3
	cfg.MinSpacing = 0
	tracker, clock := newTestTracker(cfg)

	for i := 0; i < 2; i++ {
		tracker.RecordRequest()
		clock.Advance(time.Second)
	}
	assert.True(t, tracker.CanProceed(), "under window limit")

	tracker.RecordRequest()
	clock.Advance(time.Second)
	assert.False(t, tracker.CanProceed(), "window saturated")

	// 最老一条出窗后恢复
	clock.Advance(cfg.Window)
	assert.True(t, tracker.CanProceed())
}

func TestMinSpacing(t *testing.T) {
	cfg := DefaultConfig()
	tracker, clock := newTestTracker(cfg)

	tracker.RecordRequest()
	assert.False(t, tracker.CanProceed(), "inside min spacing")

	clock.Advance(cfg.MinSpacing)
	assert.True(t, tracker.CanProceed())
}

func TestAwaitProceedWaitsOutWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WindowLimit = 2
	cfg.MinSpacing = 0
	tracker, clock := newTestTracker(cfg)

	start := clock.Now()
	tracker.RecordRequest()
	tracker.RecordRequest()

	require.NoError(t, tracker.AwaitProceed(context.Background()))
	assert.True(t, tracker.CanProceed())
	// 睡眠应把时间推到最老记录出窗之后
	assert.False(t, clock.Now().Before(start.Add(cfg.Window)))
}

func TestMonthlyQuotaHardStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MonthlyRequests = 2
	cfg.WindowLimit = 100
	cfg.MinSpacing = 0
	tracker, _ := newTestTracker(cfg)

	tracker.RecordRequest()
	tracker.RecordRequest()

	assert.False(t, tracker.CanProceed())
	err := tracker.AwaitProceed(context.Background())
	assert.ErrorIs(t, err, ErrMonthlyQuota)
}

func TestCalendarRolloverResetsCounters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MonthlyRequests = 1
	cfg.MinSpacing = 0
	tracker, clock := newTestTracker(cfg)

	tracker.RecordRequest()
	tracker.RecordItems(500)
	assert.False(t, tracker.CanProceed())

	// 跨过月边界后任一记账操作都应触发重置
	clock.Advance(31 * 24 * time.Hour)
	assert.True(t, tracker.CanProceed())

	st := tracker.Status()
	assert.Equal(t, 0, st.MonthRequests)
	assert.Equal(t, 0, st.MonthItems)
}

func TestRecordItemsCountsTowardMonthlyCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MonthlyItems = 100
	tracker, _ := newTestTracker(cfg)

	tracker.RecordItems(60)
	assert.Equal(t, 40, tracker.ItemsRemaining())

	tracker.RecordItems(60)
	assert.Equal(t, -20, tracker.ItemsRemaining())
}

func TestStatusNextSlot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WindowLimit = 1
	cfg.MinSpacing = 0
	tracker, clock := newTestTracker(cfg)

	first := clock.Now()
	tracker.RecordRequest()
	clock.Advance(time.Minute)

	st := tracker.Status()
	assert.Equal(t, 1, st.WindowUsed)
	assert.Equal(t, first.Add(cfg.Window), st.NextSlotAt)
}

func TestStateRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	tracker, clock := newTestTracker(cfg)

	tracker.RecordRequest()
	tracker.RecordItems(42)

	data, err := tracker.ExportState()
	require.NoError(t, err)

	restored := NewWithClock(cfg, clock.Now, clock.Sleep)
	require.NoError(t, restored.ImportState(data))

	st := restored.Status()
	assert.Equal(t, 1, st.MonthRequests)
	assert.Equal(t, 42, st.MonthItems)
	assert.Equal(t, 1, st.WindowUsed)
}
