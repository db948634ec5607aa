package xapi

import (
	"errors"
	"strings"
)

var (
	// ErrRateLimited 外部 API 限流或临时不可用，触发引擎冷却
	ErrRateLimited = errors.New("external api rate limited or unavailable")
	// ErrHandleNotFound 账号名无法解析
	ErrHandleNotFound = errors.New("handle not found")
)

// IsTransient 判断错误是否属于应进入冷却的瞬时类错误。
// 除了哨兵错误外还按文案匹配，外部 SDK 的报错形态不受我们控制。
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, kw := range []string{"rate limit", "too many requests", "service unavailable", "429", "503"} {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}
