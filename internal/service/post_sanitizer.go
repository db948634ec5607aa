package service

import (
	"Watchtower/internal/model"
	"Watchtower/internal/pkg/consts"
	"Watchtower/internal/pkg/util"
	"Watchtower/internal/pkg/xapi"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	errMissingID   = errors.New("record missing id")
	errMissingText = errors.New("record missing text content")
)

// timeLayouts 外部 API 出现过的时间格式，按概率排序
var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	time.RubyDate,
}

// sanitizePost 把外部 API 的松散载荷映射成强类型帖子记录。
// 字段回退规则还原了真实 API 的各种怪癖：
//   - id 与正文缺失直接拒绝
//   - 时间解析失败时用摄取时刻兜底，不拒绝
//   - 正文超过 5000 码点截断并追加标记
//   - 计数缺失、非数字或为负一律归零
//   - 数组字段缺失或形态不对时给空数组，绝不为 nil
//   - 帖子链接由账号名和帖子 ID 拼出规范形式，不信任载荷里的链接
func sanitizePost(raw xapi.RawPost, org *model.Organization, now time.Time) (*model.Post, error) {
	id := pickString(raw, "id", "id_str", "post_id")
	if id == "" {
		return nil, errMissingID
	}

	text := pickString(raw, "text", "full_text", "content")
	if text == "" {
		return nil, errMissingText
	}
	text = util.TruncateRunes(text, consts.MaxContentRunes, consts.TruncationMark)

	postedAt := now
	if rawTime := pickString(raw, "created_at", "createdAt", "timestamp"); rawTime != "" {
		if parsed, ok := parseTime(rawTime); ok {
			postedAt = parsed
		}
	}

	metrics, _ := raw["public_metrics"].(map[string]any)
	if metrics == nil {
		metrics, _ = raw["metrics"].(map[string]any)
	}

	entities, _ := raw["entities"].(map[string]any)

	handle := ""
	if org.Handle != nil {
		handle = strings.TrimPrefix(*org.Handle, "@")
	}

	return &model.Post{
		OrgID:        org.ID,
		ExternalID:   id,
		Content:      text,
		LikesCount:   pickCount(metrics, raw, "like_count", "likes"),
		RepostsCount: pickCount(metrics, raw, "repost_count", "retweet_count"),
		RepliesCount: pickCount(metrics, raw, "reply_count", "replies"),
		QuotesCount:  pickCount(metrics, raw, "quote_count", "quotes"),
		Mentions:     pickList(entities, "mentions", "username"),
		Tags:         pickList(entities, "hashtags", "tag"),
		Links:        pickList(entities, "urls", "url"),
		URL:          fmt.Sprintf("https://x.com/%s/status/%s", handle, id),
		PostedAt:     postedAt,
	}, nil
}

// pickString 依序尝试多个键，取第一个非空字符串；数字 ID 也转成字符串
func pickString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatInt(int64(v), 10)
		}
	}
	return ""
}

func parseTime(raw string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// pickCount 先查嵌套的 metrics 对象再查平铺字段，强制为非负整数
func pickCount(metrics map[string]any, raw map[string]any, keys ...string) int {
	for _, key := range keys {
		if metrics != nil {
			if n, ok := coerceCount(metrics[key]); ok {
				return n
			}
		}
		if n, ok := coerceCount(raw[key]); ok {
			return n
		}
	}
	return 0
}

func coerceCount(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0, true
		}
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		if parsed < 0 {
			return 0, true
		}
		return parsed, true
	}
	return 0, false
}

// pickList 解开形如 [{field: "..."}] 或 ["..."] 的数组，形态不对时给空数组
func pickList(entities map[string]any, key, field string) []string {
	out := make([]string, 0)
	if entities == nil {
		return out
	}

	items, ok := entities[key].([]any)
	if !ok {
		return out
	}

	for _, item := range items {
		switch v := item.(type) {
		case string:
			if v != "" {
				out = append(out, v)
			}
		case map[string]any:
			if s, ok := v[field].(string); ok && s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
