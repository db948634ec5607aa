package handler

import (
	"Watchtower/internal/api/dto"
	"Watchtower/internal/pkg/cron"
	"Watchtower/internal/pkg/logger"
	"Watchtower/internal/pkg/response"
	"Watchtower/internal/service"
	"context"
	"errors"
	log "log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type SyncHandler struct {
	syncSvc service.SyncService
	cronMgr *cron.Manager
}

func NewSyncHandler(syncSvc service.SyncService, cronMgr *cron.Manager) *SyncHandler {
	return &SyncHandler{syncSvc: syncSvc, cronMgr: cronMgr}
}

// Trigger 手动触发一次同步。运行在后台进行，接口立即返回；
// 已有运行在途或处于冷却期时直接拒绝。
func (s *SyncHandler) Trigger(c *gin.Context) {
	if s.syncSvc.Running() {
		response.Error(c, service.ErrSyncAlreadyRunning)
		return
	}
	if s.syncSvc.InCooldown() {
		response.Error(c, service.ErrSyncInCooldown)
		return
	}

	go func() {
		traceID := "manual-" + uuid.NewString()
		ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)
		if _, err := s.syncSvc.RunOnce(ctx); err != nil &&
			!errors.Is(err, service.ErrSyncAlreadyRunning) && !errors.Is(err, service.ErrSyncInCooldown) {
			log.ErrorContext(ctx, "manual sync failed", "err", err)
		}
	}()

	response.Success(c, gin.H{"triggered": true})
}

// Start 恢复定时调度
func (s *SyncHandler) Start(c *gin.Context) {
	s.cronMgr.Start()
	response.Success(c, s.cronMgr.Status())
}

// Stop 暂停定时调度。在途运行自然跑完，只拦后续触发。
func (s *SyncHandler) Stop(c *gin.Context) {
	s.cronMgr.Stop()
	response.Success(c, s.cronMgr.Status())
}

// Status 调度器、引擎与配额的当前状态
func (s *SyncHandler) Status(c *gin.Context) {
	response.Success(c, s.cronMgr.Status())
}

// Runs 最近的运行记录
func (s *SyncHandler) Runs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	runs, err := s.syncSvc.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	runDTOs := make([]dto.SyncRunDTO, 0, len(runs))
	if err := copier.Copy(&runDTOs, runs); err != nil {
		response.Error(c, service.UnExpectedError)
		return
	}
	response.Success(c, runDTOs)
}
