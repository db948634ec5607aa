package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SyncRunRepo interface {
	SaveRun(ctx context.Context, run *SyncRun) error
	RecentRuns(ctx context.Context, limit int) ([]*SyncRun, error)
}

type syncRunRepoImpl struct {
	col *mongo.Collection
}

func NewSyncRunRepo(db *mongo.Database) SyncRunRepo {
	return &syncRunRepoImpl{
		col: db.Collection("sync_runs"),
	}
}

// SaveRun 追加写入，一次运行一条
func (s *syncRunRepoImpl) SaveRun(ctx context.Context, run *SyncRun) error {
	_, err := s.col.InsertOne(ctx, run)
	return err
}

// RecentRuns 按开始时间倒序返回最近的运行记录
func (s *syncRunRepoImpl) RecentRuns(ctx context.Context, limit int) ([]*SyncRun, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.col.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var runs []*SyncRun
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, err
	}

	return runs, nil
}
