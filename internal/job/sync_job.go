package job

import (
	"Watchtower/internal/pkg/logger"
	"Watchtower/internal/service"
	"context"
	"errors"
	log "log/slog"

	"github.com/google/uuid"
)

// SyncJob 定时增量同步。引擎自带互斥与冷却判断，
// 这里拿到 ErrSyncAlreadyRunning / ErrSyncInCooldown 只记日志不重试。
type SyncJob struct {
	syncSvc service.SyncService
}

func NewSyncJob(syncSvc service.SyncService) *SyncJob {
	return &SyncJob{syncSvc: syncSvc}
}

func (s *SyncJob) Run() {
	traceID := "job-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	_, err := s.syncSvc.RunOnce(ctx)
	if err != nil {
		if errors.Is(err, service.ErrSyncAlreadyRunning) || errors.Is(err, service.ErrSyncInCooldown) {
			log.InfoContext(ctx, "scheduled sync skipped", "reason", err)
			return
		}
		log.ErrorContext(ctx, "scheduled sync failed", "err", err)
	}
}
