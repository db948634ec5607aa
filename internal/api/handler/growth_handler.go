package handler

import (
	"Watchtower/internal/model"
	"Watchtower/internal/pkg/response"
	"Watchtower/internal/service"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type GrowthHandler struct {
	growthSvc   service.GrowthService
	snapshotSvc service.SnapshotService
}

func NewGrowthHandler(growthSvc service.GrowthService, snapshotSvc service.SnapshotService) *GrowthHandler {
	return &GrowthHandler{growthSvc: growthSvc, snapshotSvc: snapshotSvc}
}

// Window 滚动 N 天窗口增长
func (s *GrowthHandler) Window(c *gin.Context) {
	orgID, err := strconv.ParseUint(c.Param("org_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))

	growth, err := s.growthSvc.WindowGrowth(c.Request.Context(), orgID, days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, growth)
}

// Calendar 日历对齐周期增长（day/week/month/year）
func (s *GrowthHandler) Calendar(c *gin.Context) {
	orgID, err := strconv.ParseUint(c.Param("org_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	periodType := c.DefaultQuery("period", model.PeriodWeek)

	growth, err := s.growthSvc.CalendarGrowth(c.Request.Context(), orgID, periodType)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, growth)
}

// TopK 按窗口增量排序的前 K 个组织
func (s *GrowthHandler) TopK(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	k, _ := strconv.Atoi(c.DefaultQuery("k", "10"))

	growths, err := s.growthSvc.TopKByGrowth(c.Request.Context(), days, k)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, growths)
}

// Periods 已物化的增长周期行
func (s *GrowthHandler) Periods(c *gin.Context) {
	orgID, err := strconv.ParseUint(c.Param("org_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	periodType := c.DefaultQuery("period", model.PeriodDay)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))

	periods, err := s.growthSvc.ListPeriods(c.Request.Context(), orgID, periodType, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, periods)
}

// Snapshots 粉丝数快照历史
func (s *GrowthHandler) Snapshots(c *gin.Context) {
	orgID, err := strconv.ParseUint(c.Param("org_id"), 10, 64)
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days <= 0 {
		days = 30
	}
	to := time.Now()
	from := to.AddDate(0, 0, -days)

	snaps, err := s.snapshotSvc.History(c.Request.Context(), orgID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, snaps)
}
