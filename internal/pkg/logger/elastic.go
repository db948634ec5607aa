package logger

import (
	log "log/slog"
	"net/http"
	"time"
)

// ESTransport 记录 ES 请求耗时与结果
type ESTransport struct {
	Transport http.RoundTripper
}

func (t *ESTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := t.Transport.RoundTrip(req)
	elapsed := time.Since(start)

	fields := []any{
		log.String("method", req.Method),
		log.String("url", req.URL.String()),
		log.Duration("latency", elapsed),
	}

	if err != nil {
		log.ErrorContext(req.Context(), "ES_QUERY_ERROR", append(fields, log.Any("err", err))...)
		return nil, err
	}

	if resp.StatusCode >= 400 || elapsed > 200*time.Millisecond {
		log.WarnContext(req.Context(), "ES_QUERY_SLOW_OR_FAILED",
			append(fields, log.Int("status", resp.StatusCode))...)
	}

	return resp, nil
}
