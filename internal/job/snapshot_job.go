package job

import (
	"Watchtower/internal/pkg/logger"
	"Watchtower/internal/service"
	"context"
	log "log/slog"

	"github.com/google/uuid"
)

// SnapshotJob 每日粉丝数采集
type SnapshotJob struct {
	snapshotSvc service.SnapshotService
}

func NewSnapshotJob(snapshotSvc service.SnapshotService) *SnapshotJob {
	return &SnapshotJob{snapshotSvc: snapshotSvc}
}

func (s *SnapshotJob) Run() {
	traceID := "job-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	if err := s.snapshotSvc.CaptureAll(ctx); err != nil {
		log.ErrorContext(ctx, "daily snapshot capture failed", "err", err)
	}
}
