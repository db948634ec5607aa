package mongo

import "time"

// SyncRun 一次同步周期的统计，写入后不再修改
type SyncRun struct {
	RunID         string    `bson:"run_id" json:"run_id"`
	StartedAt     time.Time `bson:"started_at" json:"started_at"`
	FinishedAt    time.Time `bson:"finished_at" json:"finished_at"`
	ElapsedMs     int64     `bson:"elapsed_ms" json:"elapsed_ms"`
	OrgsProcessed int       `bson:"orgs_processed" json:"orgs_processed"`
	PostsAdded    int       `bson:"posts_added" json:"posts_added"`
	PostsUpdated  int       `bson:"posts_updated" json:"posts_updated"`
	APICalls      int       `bson:"api_calls" json:"api_calls"`
	Skipped       bool      `bson:"skipped" json:"skipped"`
	Errors        []string  `bson:"errors" json:"errors"`
}
