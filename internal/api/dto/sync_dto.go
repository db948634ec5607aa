package dto

import "time"

// SyncRunDTO 一次同步运行的统计
type SyncRunDTO struct {
	RunID         string    `json:"run_id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	ElapsedMs     int64     `json:"elapsed_ms"`
	OrgsProcessed int       `json:"orgs_processed"`
	PostsAdded    int       `json:"posts_added"`
	PostsUpdated  int       `json:"posts_updated"`
	APICalls      int       `json:"api_calls"`
	Skipped       bool      `json:"skipped"`
	Errors        []string  `json:"errors"`
}
