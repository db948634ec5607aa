package service

import (
	"Watchtower/internal/api/config"
	"Watchtower/internal/model"
	"Watchtower/internal/pkg/es"
	"Watchtower/internal/pkg/mongo"
	"Watchtower/internal/pkg/quota"
	"Watchtower/internal/pkg/xapi"
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeOrgRepo struct {
	orgs        []*model.Organization
	externalIDs map[uint64]string
}

func (f *fakeOrgRepo) Create(context.Context, *model.Organization) error          { return nil }
func (f *fakeOrgRepo) Update(context.Context, *model.Organization) error          { return nil }
func (f *fakeOrgRepo) Delete(context.Context, uint64) error                       { return nil }
func (f *fakeOrgRepo) GetByID(context.Context, uint64) (*model.Organization, error) {
	return nil, nil
}
func (f *fakeOrgRepo) GetBySlug(context.Context, string) (*model.Organization, error) {
	return nil, nil
}
func (f *fakeOrgRepo) List(context.Context) ([]*model.Organization, error) { return f.orgs, nil }
func (f *fakeOrgRepo) SaveExternalID(_ context.Context, orgID uint64, externalID string) error {
	if f.externalIDs == nil {
		f.externalIDs = map[uint64]string{}
	}
	f.externalIDs[orgID] = externalID
	return nil
}

type fakePostRepo struct {
	mu       sync.Mutex
	stored   map[string]*model.Post // key: orgID:externalID
	recentID []string
	upsertErr error
}

func (f *fakePostRepo) key(orgID uint64, externalID string) string {
	return fmt.Sprintf("%d:%s", orgID, externalID)
}

func (f *fakePostRepo) Upsert(_ context.Context, post *model.Post) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stored == nil {
		f.stored = map[string]*model.Post{}
	}
	f.stored[f.key(post.OrgID, post.ExternalID)] = post
	return nil
}

func (f *fakePostRepo) ExistingIDs(_ context.Context, orgID uint64, externalIDs []string) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]struct{}{}
	for _, id := range externalIDs {
		if _, ok := f.stored[f.key(orgID, id)]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakePostRepo) RecentExternalIDs(context.Context, uint64, time.Time) ([]string, error) {
	return f.recentID, nil
}
func (f *fakePostRepo) ListByOrg(context.Context, uint64, int, int) ([]*model.Post, error) {
	return nil, nil
}
func (f *fakePostRepo) CountByOrg(context.Context, uint64) (int64, error) { return 0, nil }

type fakeCursorRepo struct {
	cursors map[uint64]string
}

func (f *fakeCursorRepo) Get(_ context.Context, orgID uint64) (*model.SyncCursor, error) {
	if last, ok := f.cursors[orgID]; ok {
		return &model.SyncCursor{OrgID: orgID, LastPostID: last}, nil
	}
	return nil, nil
}

func (f *fakeCursorRepo) Save(_ context.Context, orgID uint64, lastPostID string) error {
	if f.cursors == nil {
		f.cursors = map[uint64]string{}
	}
	f.cursors[orgID] = lastPostID
	return nil
}

type fakeRunRepo struct {
	saved []*mongo.SyncRun
}

func (f *fakeRunRepo) SaveRun(_ context.Context, run *mongo.SyncRun) error {
	f.saved = append(f.saved, run)
	return nil
}
func (f *fakeRunRepo) RecentRuns(context.Context, int) ([]*mongo.SyncRun, error) {
	return f.saved, nil
}

type fakeESRepo struct {
	indexed []*es.PostES
}

func (f *fakeESRepo) IndexPost(_ context.Context, doc *es.PostES) error {
	f.indexed = append(f.indexed, doc)
	return nil
}
func (f *fakeESRepo) SearchPosts(context.Context, string, int, int) ([]*es.PostES, int64, error) {
	return nil, 0, nil
}
func (f *fakeESRepo) DeleteByOrg(context.Context, uint64) error { return nil }

type fakeArchiver struct {
	batches int
}

func (f *fakeArchiver) ArchiveBatch(context.Context, string, string, int, []byte) { f.batches++ }

type fakeProducer struct {
	published []*mongo.SyncRun
}

func (f *fakeProducer) PublishRunCompleted(_ context.Context, run *mongo.SyncRun) {
	f.published = append(f.published, run)
}
func (f *fakeProducer) Close() error { return nil }

// fakeXClient 脚本化的对外 API：按 externalID 预置返回值
type fakeXClient struct {
	handles    map[string]string // handle -> externalID
	posts      map[string][]xapi.RawPost
	followers  map[string]int // handle -> follower count
	resolveErr map[string]error
	fetchErr   map[string]error
	calls      int
	byIDCalls  [][]string
}

func (f *fakeXClient) ResolveHandle(_ context.Context, handle string) (string, error) {
	f.calls++
	if err, ok := f.resolveErr[handle]; ok {
		return "", err
	}
	id, ok := f.handles[handle]
	if !ok {
		return "", xapi.ErrHandleNotFound
	}
	return id, nil
}

func (f *fakeXClient) FetchPostsSince(_ context.Context, externalID, sinceID string, _ int) ([]xapi.RawPost, []byte, error) {
	f.calls++
	if err, ok := f.fetchErr[externalID]; ok {
		return nil, nil, err
	}
	var out []xapi.RawPost
	for _, p := range f.posts[externalID] {
		if sinceID != "" && p["id"].(string) <= sinceID {
			continue
		}
		out = append(out, p)
	}
	return out, []byte("{}"), nil
}

func (f *fakeXClient) FetchPostsByIDs(_ context.Context, ids []string) ([]xapi.RawPost, []byte, error) {
	f.calls++
	f.byIDCalls = append(f.byIDCalls, ids)
	return nil, []byte("{}"), nil
}

func (f *fakeXClient) FetchFollowerCounts(_ context.Context, handles []string) ([]xapi.AccountMetric, error) {
	f.calls++
	out := make([]xapi.AccountMetric, 0, len(handles))
	for _, h := range handles {
		if n, ok := f.followers[h]; ok {
			out = append(out, xapi.AccountMetric{Handle: h, Followers: n})
		}
	}
	return out, nil
}

// ---- helpers ----

func rawPost(id, text string) xapi.RawPost {
	return xapi.RawPost{
		"id":         id,
		"text":       text,
		"created_at": "2026-08-29T10:00:00Z",
	}
}

func handlePtr(s string) *string { return &s }

type engineFixture struct {
	svc      *syncServiceImpl
	orgRepo  *fakeOrgRepo
	postRepo *fakePostRepo
	cursors  *fakeCursorRepo
	runRepo  *fakeRunRepo
	esRepo   *fakeESRepo
	client   *fakeXClient
	clock    *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newEngineFixture(orgs []*model.Organization, client *fakeXClient) *engineFixture {
	clock := &fakeClock{now: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)}
	tracker := quota.NewWithClock(quota.Config{
		WindowLimit:     1000,
		Window:          15 * time.Minute,
		MonthlyRequests: 100000,
		MonthlyItems:    100000,
		MinSpacing:      0,
	}, clock.Now, clock.Sleep)

	f := &engineFixture{
		orgRepo:  &fakeOrgRepo{orgs: orgs},
		postRepo: &fakePostRepo{},
		cursors:  &fakeCursorRepo{},
		runRepo:  &fakeRunRepo{},
		esRepo:   &fakeESRepo{},
		client:   client,
		clock:    clock,
	}

	svc := NewSyncService(
		f.orgRepo, f.postRepo, f.cursors, f.runRepo, f.esRepo,
		f.client, tracker, &fakeArchiver{}, &fakeProducer{},
		config.SyncConfig{RefreshWindowDays: 7, CooldownMinutes: 15}, 100,
	).(*syncServiceImpl)
	svc.now = clock.Now
	svc.sleep = clock.Sleep
	f.svc = svc
	return f
}

// ---- tests ----

func TestRunOnceIngestsNewPosts(t *testing.T) {
	client := &fakeXClient{
		handles: map[string]string{"acme": "u100"},
		posts: map[string][]xapi.RawPost{
			"u100": {rawPost("103", "third"), rawPost("102", "second"), rawPost("101", "first")},
		},
	}
	f := newEngineFixture([]*model.Organization{
		{ID: 1, Slug: "acme", Handle: handlePtr("acme")},
	}, client)

	stats, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.OrgsProcessed)
	assert.Equal(t, 3, stats.PostsAdded)
	assert.Equal(t, 0, stats.PostsUpdated)
	assert.Len(t, f.postRepo.stored, 3)
	// 游标取响应首位（接口按新到旧返回），而不是本地重排
	assert.Equal(t, "103", f.cursors.cursors[1])
	// 统计必定落盘并发布事件
	require.Len(t, f.runRepo.saved, 1)
	assert.Equal(t, stats.RunID, f.runRepo.saved[0].RunID)
}

func TestRunOnceSecondRunClassifiesUpdated(t *testing.T) {
	client := &fakeXClient{
		handles: map[string]string{"acme": "u100"},
		posts: map[string][]xapi.RawPost{
			"u100": {rawPost("102", "second"), rawPost("101", "first")},
		},
	}
	f := newEngineFixture([]*model.Organization{
		{ID: 1, Slug: "acme", Handle: handlePtr("acme")},
	}, client)

	_, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)

	// 第二轮：游标排他，旧帖不再返回，再加一条新帖
	client.posts["u100"] = append([]xapi.RawPost{rawPost("103", "third")}, client.posts["u100"]...)
	stats, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.PostsAdded)
	assert.Equal(t, 0, stats.PostsUpdated)
	assert.Equal(t, "103", f.cursors.cursors[1])
	assert.Len(t, f.postRepo.stored, 3)
}

func TestRunOncePerOrgIsolation(t *testing.T) {
	client := &fakeXClient{
		handles: map[string]string{"alpha": "u1", "gamma": "u3"},
		posts: map[string][]xapi.RawPost{
			"u1": {rawPost("11", "a")},
			"u3": {rawPost("31", "c")},
		},
		resolveErr: map[string]error{"beta": errors.New("boom")},
	}
	f := newEngineFixture([]*model.Organization{
		{ID: 1, Slug: "alpha", Handle: handlePtr("alpha")},
		{ID: 2, Slug: "beta", Handle: handlePtr("beta")},
		{ID: 3, Slug: "gamma", Handle: handlePtr("gamma")},
	}, client)

	stats, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)

	// 中间组织失败不影响前后两个
	assert.Equal(t, 3, stats.OrgsProcessed)
	assert.Equal(t, 2, stats.PostsAdded)
	assert.Equal(t, "11", f.cursors.cursors[1])
	assert.Equal(t, "31", f.cursors.cursors[3])
}

func TestRunOnceFetchFailureKeepsCursor(t *testing.T) {
	client := &fakeXClient{
		handles: map[string]string{"acme": "u100"},
		posts: map[string][]xapi.RawPost{
			"u100": {rawPost("102", "second"), rawPost("101", "first")},
		},
	}
	f := newEngineFixture([]*model.Organization{
		{ID: 1, Slug: "acme", Handle: handlePtr("acme")},
	}, client)

	_, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, "102", f.cursors.cursors[1])

	client.fetchErr = map[string]error{"u100": errors.New("wire cut")}
	stats, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, stats.Errors)
	// 失败的批次不推进游标
	assert.Equal(t, "102", f.cursors.cursors[1])
}

func TestRunOnceRejectsWhenAlreadyRunning(t *testing.T) {
	f := newEngineFixture(nil, &fakeXClient{})
	f.svc.mu.Lock()
	f.svc.running = true
	f.svc.mu.Unlock()

	_, err := f.svc.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrSyncAlreadyRunning)
}

func TestRunOnceSkipsInsideCooldown(t *testing.T) {
	client := &fakeXClient{handles: map[string]string{"acme": "u100"}}
	f := newEngineFixture([]*model.Organization{
		{ID: 1, Slug: "acme", Handle: handlePtr("acme")},
	}, client)

	f.svc.mu.Lock()
	f.svc.cooldownUntil = f.clock.Now().Add(10 * time.Minute)
	f.svc.mu.Unlock()

	stats, err := f.svc.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrSyncInCooldown)
	assert.True(t, stats.Skipped)
	// 冷却期内一次外部调用都不许发
	assert.Equal(t, 0, f.client.calls)
	// skipped 运行同样入库
	require.Len(t, f.runRepo.saved, 1)
	assert.True(t, f.runRepo.saved[0].Skipped)
}

func TestRunOnceTransientErrorEntersCooldown(t *testing.T) {
	client := &fakeXClient{
		handles:  map[string]string{"acme": "u100"},
		fetchErr: map[string]error{"u100": xapi.ErrRateLimited},
	}
	f := newEngineFixture([]*model.Organization{
		{ID: 1, Slug: "acme", Handle: handlePtr("acme")},
	}, client)

	_, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.True(t, f.svc.InCooldown())
	assert.Equal(t, f.clock.Now().Add(15*time.Minute), f.svc.CooldownUntil())
}

func TestRunOnceSkipsOrgWithoutHandle(t *testing.T) {
	f := newEngineFixture([]*model.Organization{
		{ID: 1, Slug: "silent"},
	}, &fakeXClient{})

	stats, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.OrgsProcessed)
	assert.Equal(t, 0, f.client.calls)
}

func TestRunOnceUnresolvableHandleIsSoftFailure(t *testing.T) {
	f := newEngineFixture([]*model.Organization{
		{ID: 1, Slug: "ghost", Handle: handlePtr("ghost")},
	}, &fakeXClient{handles: map[string]string{}})

	stats, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.OrgsProcessed)
	assert.Empty(t, stats.Errors)
	assert.Equal(t, 0, stats.PostsAdded)
}

func TestRunOnceRefreshBatchesRespectLimit(t *testing.T) {
	client := &fakeXClient{handles: map[string]string{"acme": "u100"}}
	f := newEngineFixture([]*model.Organization{
		{ID: 1, Slug: "acme", Handle: handlePtr("acme")},
	}, client)

	// 230 条近期帖子应切成 100/100/30 三批
	ids := make([]string, 0, 230)
	for i := 0; i < 230; i++ {
		ids = append(ids, strconv.Itoa(1000+i))
	}
	f.postRepo.recentID = ids

	_, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, client.byIDCalls, 3)
	assert.Len(t, client.byIDCalls[0], 100)
	assert.Len(t, client.byIDCalls[1], 100)
	assert.Len(t, client.byIDCalls[2], 30)
}

func TestRunOnceRejectedRecordDoesNotAbortBatch(t *testing.T) {
	client := &fakeXClient{
		handles: map[string]string{"acme": "u100"},
		posts: map[string][]xapi.RawPost{
			"u100": {
				rawPost("103", "good"),
				{"text": "no id here"}, // 缺 id，应被拒
				rawPost("101", "also good"),
			},
		},
	}
	f := newEngineFixture([]*model.Organization{
		{ID: 1, Slug: "acme", Handle: handlePtr("acme")},
	}, client)

	stats, err := f.svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.PostsAdded)
	assert.Len(t, stats.Errors, 1)
	assert.Equal(t, "103", f.cursors.cursors[1])
}
