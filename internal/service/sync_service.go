package service

import (
	"Watchtower/internal/api/config"
	"Watchtower/internal/model"
	"Watchtower/internal/pkg/consts"
	"Watchtower/internal/pkg/es"
	"Watchtower/internal/pkg/kafka"
	"Watchtower/internal/pkg/logger"
	"Watchtower/internal/pkg/minio"
	"Watchtower/internal/pkg/mongo"
	"Watchtower/internal/pkg/quota"
	"Watchtower/internal/pkg/util"
	"Watchtower/internal/pkg/xapi"
	"Watchtower/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SyncService 增量同步引擎：按组织串行拉取新帖子并落库。
// 单进程单定时器模型，组织间顺序处理，互斥由 running 标志保证。
type SyncService interface {
	RunOnce(ctx context.Context) (*mongo.SyncRun, error)
	Running() bool
	InCooldown() bool
	CooldownUntil() time.Time
	QuotaStatus() quota.Status
	RecentRuns(ctx context.Context, limit int) ([]*mongo.SyncRun, error)
}

type syncServiceImpl struct {
	orgRepo    repository.OrgRepo
	postRepo   repository.PostRepo
	cursorRepo repository.CursorRepo
	runRepo    mongo.SyncRunRepo
	esRepo     es.PostRepo
	client     xapi.Client
	tracker    *quota.Tracker
	archiver   minio.Archiver
	producer   kafka.RunEventProducer

	pageSize      int
	refreshWindow time.Duration
	cooldownDur   time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu            sync.Mutex
	running       bool
	cooldownUntil time.Time
}

func NewSyncService(
	orgRepo repository.OrgRepo,
	postRepo repository.PostRepo,
	cursorRepo repository.CursorRepo,
	runRepo mongo.SyncRunRepo,
	esRepo es.PostRepo,
	client xapi.Client,
	tracker *quota.Tracker,
	archiver minio.Archiver,
	producer kafka.RunEventProducer,
	cfg config.SyncConfig,
	pageSize int,
) SyncService {
	if pageSize <= 0 {
		pageSize = 100
	}
	refreshDays := cfg.RefreshWindowDays
	if refreshDays <= 0 {
		refreshDays = 7
	}
	cooldownMin := cfg.CooldownMinutes
	if cooldownMin <= 0 {
		cooldownMin = 15
	}

	return &syncServiceImpl{
		orgRepo:       orgRepo,
		postRepo:      postRepo,
		cursorRepo:    cursorRepo,
		runRepo:       runRepo,
		esRepo:        esRepo,
		client:        client,
		tracker:       tracker,
		archiver:      archiver,
		producer:      producer,
		pageSize:      pageSize,
		refreshWindow: time.Duration(refreshDays) * 24 * time.Hour,
		cooldownDur:   time.Duration(cooldownMin) * time.Minute,
		now:           time.Now,
		sleep: func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		},
	}
}

func (s *syncServiceImpl) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *syncServiceImpl) CooldownUntil() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cooldownUntil
}

func (s *syncServiceImpl) InCooldown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Before(s.cooldownUntil)
}

func (s *syncServiceImpl) QuotaStatus() quota.Status {
	return s.tracker.Status()
}

func (s *syncServiceImpl) RecentRuns(ctx context.Context, limit int) ([]*mongo.SyncRun, error) {
	return s.runRepo.RecentRuns(ctx, limit)
}

// enterCooldown 瞬时错误后的冷却，冷却期内不再发起任何外部调用
func (s *syncServiceImpl) enterCooldown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldownUntil = s.now().Add(s.cooldownDur)
}

// awaitQuota 先睡掉残余冷却时间，再等配额放行
func (s *syncServiceImpl) awaitQuota(ctx context.Context) error {
	s.mu.Lock()
	remaining := s.cooldownUntil.Sub(s.now())
	s.mu.Unlock()

	if remaining > 0 {
		log.InfoContext(ctx, "waiting out api cooldown", "remaining", remaining)
		if err := s.sleep(ctx, remaining); err != nil {
			return err
		}
	}

	return s.tracker.AwaitProceed(ctx)
}

// RunOnce 执行一个完整同步周期。重入时返回 ErrSyncAlreadyRunning，不排队；
// 完全落在冷却期内时记录一次 skipped 运行并返回 ErrSyncInCooldown。
func (s *syncServiceImpl) RunOnce(ctx context.Context) (*mongo.SyncRun, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrSyncAlreadyRunning
	}
	s.running = true
	inCooldown := s.now().Before(s.cooldownUntil)
	s.mu.Unlock()

	startedAt := s.now()
	stats := &mongo.SyncRun{
		RunID:     "run-" + uuid.NewString(),
		StartedAt: startedAt,
		Errors:    make([]string, 0),
	}
	ctx = context.WithValue(ctx, logger.TraceIDKey, stats.RunID)

	// 统计必须落盘：组织循环里冒出的任何错误都不能绕过这里
	defer func() {
		stats.FinishedAt = s.now()
		stats.ElapsedMs = stats.FinishedAt.Sub(startedAt).Milliseconds()

		persistCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.runRepo.SaveRun(persistCtx, stats); err != nil {
			log.ErrorContext(ctx, "persist run stats failed", "err", err, "run_id", stats.RunID)
		}
		s.producer.PublishRunCompleted(persistCtx, stats)

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if inCooldown {
		log.WarnContext(ctx, "run skipped, api still cooling down", "until", s.CooldownUntil())
		stats.Skipped = true
		stats.Errors = append(stats.Errors, ErrSyncInCooldown.Error())
		return stats, ErrSyncInCooldown
	}

	orgs, err := s.orgRepo.List(ctx)
	if err != nil {
		stats.Errors = append(stats.Errors, fmt.Sprintf("list organizations: %v", err))
		return stats, nil
	}

	for _, org := range orgs {
		if org.Handle == nil || *org.Handle == "" {
			continue
		}
		stats.OrgsProcessed++

		if err := s.syncOrg(ctx, org, stats); err != nil {
			// 单个组织失败只记录，循环继续
			stats.Errors = append(stats.Errors, fmt.Sprintf("org %s: %v", org.Slug, err))
			log.ErrorContext(ctx, "org sync failed", "org", org.Slug, "err", err)
		}
	}

	log.InfoContext(ctx, "sync run finished",
		"run_id", stats.RunID,
		"orgs", stats.OrgsProcessed,
		"added", stats.PostsAdded,
		"updated", stats.PostsUpdated,
		"api_calls", stats.APICalls,
		"errors", len(stats.Errors),
	)
	return stats, nil
}

// syncOrg 单个组织的同步，意外 panic 在此兜住，不波及其它组织
func (s *syncServiceImpl) syncOrg(ctx context.Context, org *model.Organization, stats *mongo.SyncRun) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	externalID, err := s.resolveOrg(ctx, org, stats)
	if err != nil || externalID == "" {
		return err
	}

	if err := s.ingestNewPosts(ctx, org, externalID, stats); err != nil {
		return err
	}

	return s.refreshRecentCounters(ctx, org, stats)
}

// resolveOrg 账号名解析。解析不到属于软失败，返回空 ID 让调用方跳过该组织。
func (s *syncServiceImpl) resolveOrg(ctx context.Context, org *model.Organization, stats *mongo.SyncRun) (string, error) {
	if err := s.awaitQuota(ctx); err != nil {
		return "", err
	}

	externalID, err := s.client.ResolveHandle(ctx, *org.Handle)
	s.tracker.RecordRequest()
	stats.APICalls++

	if err != nil {
		if xapi.IsTransient(err) {
			s.enterCooldown()
			return "", err
		}
		log.WarnContext(ctx, "handle resolution failed, skipping org", "org", org.Slug, "err", err)
		return "", nil
	}

	if externalID != org.ExternalID {
		if err := s.orgRepo.SaveExternalID(ctx, org.ID, externalID); err != nil {
			log.WarnContext(ctx, "cache external id failed", "org", org.Slug, "err", err)
		}
	}
	return externalID, nil
}

// ingestNewPosts 从游标处继续拉新帖。游标只在整批落库后推进，
// 中途崩溃下次重拉同一批，靠主键 upsert 幂等吸收。
func (s *syncServiceImpl) ingestNewPosts(ctx context.Context, org *model.Organization, externalID string, stats *mongo.SyncRun) error {
	sinceID := ""
	cursor, err := s.cursorRepo.Get(ctx, org.ID)
	if err != nil {
		return fmt.Errorf("read cursor: %w", err)
	}
	if cursor != nil {
		sinceID = cursor.LastPostID
	}

	if err := s.awaitQuota(ctx); err != nil {
		return err
	}

	rawPosts, body, err := s.client.FetchPostsSince(ctx, externalID, sinceID, s.pageSize)
	s.tracker.RecordRequest()
	stats.APICalls++
	if err != nil {
		if xapi.IsTransient(err) {
			s.enterCooldown()
		}
		return err
	}

	s.tracker.RecordItems(len(rawPosts))
	s.archiver.ArchiveBatch(ctx, org.Slug, stats.RunID, stats.APICalls, body)

	if len(rawPosts) == 0 {
		return nil
	}

	// 新帖接口按新到旧返回，最新 ID 取自响应顺序，不在本地重排
	newestID := ""
	for _, raw := range rawPosts {
		if id := pickString(raw, "id", "id_str", "post_id"); id != "" {
			newestID = id
			break
		}
	}

	s.upsertBatch(ctx, org, rawPosts, stats)

	if newestID != "" {
		if err := s.cursorRepo.Save(ctx, org.ID, newestID); err != nil {
			return fmt.Errorf("save cursor: %w", err)
		}
	}
	return nil
}

// refreshRecentCounters 回看最近窗口内的已入库帖子，批量刷新互动计数
func (s *syncServiceImpl) refreshRecentCounters(ctx context.Context, org *model.Organization, stats *mongo.SyncRun) error {
	ids, err := s.postRepo.RecentExternalIDs(ctx, org.ID, s.now().Add(-s.refreshWindow))
	if err != nil {
		return fmt.Errorf("list recent posts: %w", err)
	}

	for start := 0; start < len(ids); start += consts.MaxBatchIDs {
		end := start + consts.MaxBatchIDs
		if end > len(ids) {
			end = len(ids)
		}

		if err := s.awaitQuota(ctx); err != nil {
			return err
		}

		rawPosts, body, err := s.client.FetchPostsByIDs(ctx, ids[start:end])
		s.tracker.RecordRequest()
		stats.APICalls++
		if err != nil {
			if xapi.IsTransient(err) {
				s.enterCooldown()
			}
			return err
		}

		s.tracker.RecordItems(len(rawPosts))
		s.archiver.ArchiveBatch(ctx, org.Slug, stats.RunID, stats.APICalls, body)

		s.upsertBatch(ctx, org, rawPosts, stats)
	}
	return nil
}

// upsertBatch 按响应顺序校验并落库一批帖子。单条校验或写库失败只记录，
// 不中断同批其余记录。
func (s *syncServiceImpl) upsertBatch(ctx context.Context, org *model.Organization, rawPosts []xapi.RawPost, stats *mongo.SyncRun) {
	batchIDs := make([]string, 0, len(rawPosts))
	posts := make([]*model.Post, 0, len(rawPosts))

	now := s.now()
	for _, raw := range rawPosts {
		post, err := sanitizePost(raw, org, now)
		if err != nil {
			log.WarnContext(ctx, "record rejected", "org", org.Slug, "err", err)
			stats.Errors = append(stats.Errors, fmt.Sprintf("org %s: %v", org.Slug, err))
			continue
		}
		posts = append(posts, post)
		batchIDs = append(batchIDs, post.ExternalID)
	}

	existing, err := s.postRepo.ExistingIDs(ctx, org.ID, batchIDs)
	if err != nil {
		log.ErrorContext(ctx, "lookup existing posts failed", "org", org.Slug, "err", err)
		existing = map[string]struct{}{}
	}

	for _, post := range posts {
		if err := s.postRepo.Upsert(ctx, post); err != nil {
			log.ErrorContext(ctx, "post upsert failed",
				"org", org.Slug, "post_id", post.ExternalID, "err", err)
			stats.Errors = append(stats.Errors, fmt.Sprintf("org %s post %s: %v", org.Slug, post.ExternalID, err))
			continue
		}

		if _, ok := existing[post.ExternalID]; ok {
			stats.PostsUpdated++
		} else {
			stats.PostsAdded++
		}

		s.indexPost(ctx, org, post)
	}
}

// indexPost 写入搜索索引，失败不影响落库结果
func (s *syncServiceImpl) indexPost(ctx context.Context, org *model.Organization, post *model.Post) {
	// 索引时把正文里的 #话题 也补进标签，去重后入索引
	seen := make(map[string]struct{}, len(post.Tags))
	tags := make([]string, 0, len(post.Tags))
	for _, t := range post.Tags {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	for _, t := range util.ExtractTags(post.Content) {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}

	doc := &es.PostES{
		OrgID:        org.ID,
		OrgSlug:      org.Slug,
		ExternalID:   post.ExternalID,
		Content:      post.Content,
		Tags:         tags,
		Mentions:     post.Mentions,
		LikesCount:   post.LikesCount,
		RepostsCount: post.RepostsCount,
		URL:          post.URL,
		PostedAt:     post.PostedAt,
	}
	if err := s.esRepo.IndexPost(ctx, doc); err != nil {
		log.WarnContext(ctx, "index post failed", "org", org.Slug, "post_id", post.ExternalID, "err", err)
	}
}
