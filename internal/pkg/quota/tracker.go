package quota

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrMonthlyQuota 月度请求配额耗尽，等待无意义，只能等自然月重置
var ErrMonthlyQuota = errors.New("monthly request quota exhausted")

type Config struct {
	WindowLimit     int           // 滑动窗口内请求上限
	Window          time.Duration // 滑动窗口长度
	MonthlyRequests int           // 自然月请求上限
	MonthlyItems    int           // 自然月条目上限
	MinSpacing      time.Duration // 相邻请求最小间隔
}

func DefaultConfig() Config {
	return Config{
		WindowLimit:     15,
		Window:          15 * time.Minute,
		MonthlyRequests: 50000,
		MonthlyItems:    15000,
		MinSpacing:      time.Second,
	}
}

// Status 当前配额使用情况
type Status struct {
	WindowUsed      int       `json:"window_used"`
	WindowLimit     int       `json:"window_limit"`
	MonthRequests   int       `json:"month_requests"`
	MonthReqLimit   int       `json:"month_req_limit"`
	MonthItems      int       `json:"month_items"`
	MonthItemsLimit int       `json:"month_items_limit"`
	NextSlotAt      time.Time `json:"next_slot_at"`
}

// Tracker 对外部 API 的三维配额记账：滑动窗口、月请求数、月条目数。
// 同步流程本身是串行的，加锁只为让 HTTP 状态端点可以并发读。
type Tracker struct {
	mu  sync.Mutex
	cfg Config

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	window      []time.Time
	monthStart  time.Time
	monthReqs   int
	monthItems  int
	lastRequest time.Time
}

func New(cfg Config) *Tracker {
	return NewWithClock(cfg, time.Now, sleepCtx)
}

// NewWithClock 允许注入时钟与睡眠函数，测试用
func NewWithClock(cfg Config, now func() time.Time, sleep func(context.Context, time.Duration) error) *Tracker {
	t := &Tracker{
		cfg:   cfg,
		now:   now,
		sleep: sleep,
	}
	t.monthStart = monthStartOf(now())
	return t
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func monthStartOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// rollover 自然月翻转时重置月度计数。惰性触发：进程可能在翻转瞬间处于空闲。
// 调用方必须已持有锁。
func (t *Tracker) rollover(now time.Time) {
	if now.Year() != t.monthStart.Year() || now.Month() != t.monthStart.Month() {
		t.monthStart = monthStartOf(now)
		t.monthReqs = 0
		t.monthItems = 0
	}
}

// prune 丢弃窗口中早于 now-Window 的记录。调用方必须已持有锁。
func (t *Tracker) prune(now time.Time) {
	cutoff := now.Add(-t.cfg.Window)
	i := 0
	for i < len(t.window) && !t.window[i].After(cutoff) {
		i++
	}
	if i > 0 {
		t.window = t.window[i:]
	}
}

// CanProceed 判断此刻能否发起一次外部请求
func (t *Tracker) CanProceed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.rollover(now)
	t.prune(now)

	if len(t.window) >= t.cfg.WindowLimit {
		return false
	}
	if t.monthReqs >= t.cfg.MonthlyRequests {
		return false
	}
	if !t.lastRequest.IsZero() && now.Sub(t.lastRequest) < t.cfg.MinSpacing {
		return false
	}
	return true
}

// AwaitProceed 阻塞直到允许发起请求。滑动窗口满时睡到最老记录过期；
// 月度配额耗尽直接返回 ErrMonthlyQuota。
func (t *Tracker) AwaitProceed(ctx context.Context) error {
	for {
		t.mu.Lock()
		now := t.now()
		t.rollover(now)
		t.prune(now)

		if t.monthReqs >= t.cfg.MonthlyRequests {
			t.mu.Unlock()
			return ErrMonthlyQuota
		}

		var wait time.Duration
		if len(t.window) >= t.cfg.WindowLimit {
			wait = t.window[0].Add(t.cfg.Window).Sub(now)
		} else if !t.lastRequest.IsZero() {
			if gap := t.cfg.MinSpacing - now.Sub(t.lastRequest); gap > 0 {
				wait = gap
			}
		}
		t.mu.Unlock()

		if wait <= 0 {
			return nil
		}
		if err := t.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// RecordRequest 每次真实外部调用后记一次账，一次逻辑操作发两个请求就记两次
func (t *Tracker) RecordRequest() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.rollover(now)
	t.window = append(t.window, now)
	t.monthReqs++
	t.lastRequest = now
}

// RecordItems 将取回的条目数计入月度条目配额
func (t *Tracker) RecordItems(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover(t.now())
	t.monthItems += n
}

// ItemsRemaining 月度条目配额余量
func (t *Tracker) ItemsRemaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover(t.now())
	return t.cfg.MonthlyItems - t.monthItems
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.rollover(now)
	t.prune(now)

	nextSlot := now
	if len(t.window) >= t.cfg.WindowLimit {
		nextSlot = t.window[0].Add(t.cfg.Window)
	}

	return Status{
		WindowUsed:      len(t.window),
		WindowLimit:     t.cfg.WindowLimit,
		MonthRequests:   t.monthReqs,
		MonthReqLimit:   t.cfg.MonthlyRequests,
		MonthItems:      t.monthItems,
		MonthItemsLimit: t.cfg.MonthlyItems,
		NextSlotAt:      nextSlot,
	}
}
