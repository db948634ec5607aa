package quota

import (
	"time"

	"github.com/goccy/go-json"
)

// persistedState 跨进程重启保留的计数快照
type persistedState struct {
	Window      []time.Time `json:"window"`
	MonthStart  time.Time   `json:"month_start"`
	MonthReqs   int         `json:"month_reqs"`
	MonthItems  int         `json:"month_items"`
	LastRequest time.Time   `json:"last_request"`
}

// ExportState 序列化当前计数，由调用方负责落盘（redis）
func (t *Tracker) ExportState() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return json.Marshal(persistedState{
		Window:      t.window,
		MonthStart:  t.monthStart,
		MonthReqs:   t.monthReqs,
		MonthItems:  t.monthItems,
		LastRequest: t.lastRequest,
	})
}

// ImportState 恢复计数；月份已翻转的旧状态在下一次记账时被惰性重置
func (t *Tracker) ImportState(data []byte) error {
	var st persistedState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.window = st.Window
	t.monthStart = st.MonthStart
	t.monthReqs = st.MonthReqs
	t.monthItems = st.MonthItems
	t.lastRequest = st.LastRequest
	return nil
}
