package service

import (
	"Watchtower/internal/model"
	"Watchtower/internal/pkg/consts"
	"Watchtower/internal/pkg/quota"
	redispkg "Watchtower/internal/pkg/redis"
	"Watchtower/internal/pkg/xapi"
	"Watchtower/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"
)

// SnapshotService 每日粉丝数采集：批量查询所有组织的粉丝数并写入当日快照。
// 同日重复执行覆盖当日值，不追加。
type SnapshotService interface {
	CaptureAll(ctx context.Context) error
	History(ctx context.Context, orgID uint64, from, to time.Time) ([]*model.FollowerSnapshot, error)
	Latest(ctx context.Context, orgID uint64) (*model.FollowerSnapshot, error)
}

type snapshotServiceImpl struct {
	orgRepo      repository.OrgRepo
	snapshotRepo repository.SnapshotRepo
	client       xapi.Client
	tracker      *quota.Tracker
	now          func() time.Time
}

func NewSnapshotService(orgRepo repository.OrgRepo, snapshotRepo repository.SnapshotRepo, client xapi.Client, tracker *quota.Tracker) SnapshotService {
	return &snapshotServiceImpl{
		orgRepo:      orgRepo,
		snapshotRepo: snapshotRepo,
		client:       client,
		tracker:      tracker,
		now:          time.Now,
	}
}

// CaptureAll 为所有有账号名的组织记录当日粉丝数。
// 用 redis 锁挡掉同日的重复触发，拿不到锁直接返回。
func (s *snapshotServiceImpl) CaptureAll(ctx context.Context) error {
	today := s.now()
	lockKey := consts.SnapshotLock + today.Format("2006-01-02")
	locked, err := redispkg.TryLock(ctx, lockKey, "1", time.Hour, 1)
	if err != nil && !errors.Is(err, redispkg.ErrNotInitialized) {
		return err
	}
	if err == nil && !locked {
		log.InfoContext(ctx, "snapshot capture already taken today, skipping")
		return nil
	}

	orgs, err := s.orgRepo.List(ctx)
	if err != nil {
		return err
	}

	byHandle := make(map[string]uint64, len(orgs))
	handles := make([]string, 0, len(orgs))
	for _, org := range orgs {
		if org.Handle == nil || *org.Handle == "" {
			continue
		}
		byHandle[strings.ToLower(*org.Handle)] = org.ID
		handles = append(handles, *org.Handle)
	}
	if len(handles) == 0 {
		return nil
	}

	for start := 0; start < len(handles); start += consts.MaxBatchIDs {
		end := start + consts.MaxBatchIDs
		if end > len(handles) {
			end = len(handles)
		}

		if err := s.tracker.AwaitProceed(ctx); err != nil {
			return err
		}
		metrics, err := s.client.FetchFollowerCounts(ctx, handles[start:end])
		s.tracker.RecordRequest()
		if err != nil {
			return fmt.Errorf("fetch follower counts: %w", err)
		}
		s.tracker.RecordItems(len(metrics))

		for _, m := range metrics {
			orgID, ok := byHandle[strings.ToLower(m.Handle)]
			if !ok {
				continue
			}
			if err := s.snapshotRepo.Record(ctx, orgID, m.Followers, today); err != nil {
				log.ErrorContext(ctx, "record snapshot failed", "handle", m.Handle, "err", err)
			}
		}
	}

	log.InfoContext(ctx, "follower snapshot captured", "orgs", len(handles))
	return nil
}

func (s *snapshotServiceImpl) History(ctx context.Context, orgID uint64, from, to time.Time) ([]*model.FollowerSnapshot, error) {
	if from.After(to) {
		return nil, ErrParamInvalid
	}
	return s.snapshotRepo.Range(ctx, orgID, from, to)
}

func (s *snapshotServiceImpl) Latest(ctx context.Context, orgID uint64) (*model.FollowerSnapshot, error) {
	return s.snapshotRepo.MostRecent(ctx, orgID)
}
