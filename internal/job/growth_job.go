package job

import (
	"Watchtower/internal/pkg/logger"
	"Watchtower/internal/service"
	"context"
	log "log/slog"

	"github.com/google/uuid"
)

// GrowthJob 每日重算各周期增长并覆盖物化行。
// growth_periods 完全由快照推导，算错了删掉重算即可。
type GrowthJob struct {
	growthSvc service.GrowthService
}

func NewGrowthJob(growthSvc service.GrowthService) *GrowthJob {
	return &GrowthJob{growthSvc: growthSvc}
}

func (s *GrowthJob) Run() {
	traceID := "job-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	if err := s.growthSvc.MaterializeAll(ctx); err != nil {
		log.ErrorContext(ctx, "growth materialization failed", "err", err)
	}
}
