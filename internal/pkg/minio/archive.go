package minio

import (
	"bytes"
	"context"
	"fmt"
	log "log/slog"

	"github.com/minio/minio-go/v7"
)

// Archiver 把每批次的原始抓取报文存档，用于排障与重放
type Archiver interface {
	ArchiveBatch(ctx context.Context, orgSlug, runID string, seq int, payload []byte)
}

type minioArchiver struct{}

type noopArchiver struct{}

func (noopArchiver) ArchiveBatch(context.Context, string, string, int, []byte) {}

// NewArchiver 归档未启用时返回空实现
func NewArchiver() Archiver {
	if Client == nil {
		return noopArchiver{}
	}
	return minioArchiver{}
}

// ArchiveBatch 归档失败只记日志，不影响同步流程
func (minioArchiver) ArchiveBatch(ctx context.Context, orgSlug, runID string, seq int, payload []byte) {
	objectName := fmt.Sprintf("raw/%s/%s/%04d.json", orgSlug, runID, seq)

	_, err := Client.PutObject(ctx, Bucket, objectName,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		log.ErrorContext(ctx, "archive raw batch failed", "err", err, "object", objectName)
	}
}
