package cron

import (
	"Watchtower/internal/job"
	"Watchtower/internal/pkg/quota"
	"Watchtower/internal/service"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Status 调度器与引擎的当前状态，给监控端点用
type Status struct {
	SchedulerRunning bool         `json:"scheduler_running"`
	SyncRunning      bool         `json:"sync_running"`
	InCooldown       bool         `json:"in_cooldown"`
	CooldownUntil    time.Time    `json:"cooldown_until,omitempty"`
	IntervalMinutes  int          `json:"interval_minutes"`
	Quota            quota.Status `json:"quota"`
}

// Manager 单定时器调度：一个固定间隔的同步任务，外加每日快照与增长物化。
// 重叠由引擎的 running 标志挡掉，调度器本身不排队。
type Manager struct {
	engine          *cron.Cron
	syncJob         *job.SyncJob
	snapshotJob     *job.SnapshotJob
	growthJob       *job.GrowthJob
	syncSvc         service.SyncService
	intervalMinutes int

	mu      sync.Mutex
	running bool
}

func NewCronManager(
	syncJob *job.SyncJob,
	snapshotJob *job.SnapshotJob,
	growthJob *job.GrowthJob,
	syncSvc service.SyncService,
	intervalMinutes int,
) *Manager {
	if intervalMinutes <= 0 {
		intervalMinutes = 30
	}
	return &Manager{
		engine:          cron.New(cron.WithSeconds()),
		syncJob:         syncJob,
		snapshotJob:     snapshotJob,
		growthJob:       growthJob,
		syncSvc:         syncSvc,
		intervalMinutes: intervalMinutes,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(fmt.Sprintf("@every %dm", s.intervalMinutes), s.syncJob); err != nil {
		return err
	}
	if _, err := s.engine.AddJob("@daily", s.snapshotJob); err != nil {
		return err
	}
	// 增长物化排在快照之后半小时，保证当日快照已落库
	if _, err := s.engine.AddJob("0 30 0 * * *", s.growthJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	log.Info("Cron 定时任务引擎启动", "sync_interval_minutes", s.intervalMinutes)
	s.engine.Start()
	s.running = true
}

func (s *Manager) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	log.Info("Cron 定时任务引擎停止")
	// Stop 只拦新触发，已在跑的任务自行跑完
	s.engine.Stop()
	s.running = false
}

func (s *Manager) Status() Status {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	return Status{
		SchedulerRunning: running,
		SyncRunning:      s.syncSvc.Running(),
		InCooldown:       s.syncSvc.InCooldown(),
		CooldownUntil:    s.syncSvc.CooldownUntil(),
		IntervalMinutes:  s.intervalMinutes,
		Quota:            s.syncSvc.QuotaStatus(),
	}
}
