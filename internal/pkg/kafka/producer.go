package kafka

import (
	"Watchtower/internal/api/config"
	"Watchtower/internal/pkg/mongo"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// RunEventProducer 每个同步周期结束后把统计摘要发到 Kafka，
// topic 未配置时为空实现
type RunEventProducer interface {
	PublishRunCompleted(ctx context.Context, run *mongo.SyncRun)
	Close() error
}

type saramaProducer struct {
	producer sarama.SyncProducer
	topic    string
}

type noopProducer struct{}

func (noopProducer) PublishRunCompleted(context.Context, *mongo.SyncRun) {}
func (noopProducer) Close() error                                        { return nil }

// NewRunEventProducer 构建生产者；未配置 topic 时返回空实现
func NewRunEventProducer(cfg config.KafkaConfig) (RunEventProducer, error) {
	if cfg.Topic == "" || len(cfg.Brokers) == 0 {
		log.Info("Kafka run events disabled")
		return noopProducer{}, nil
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, newSaramaConfig(cfg))
	if err != nil {
		return nil, err
	}

	return &saramaProducer{producer: producer, topic: cfg.Topic}, nil
}

// PublishRunCompleted 发送失败只记日志，事件流是旁路，不能影响同步结果
func (s *saramaProducer) PublishRunCompleted(ctx context.Context, run *mongo.SyncRun) {
	payload, err := json.Marshal(run)
	if err != nil {
		log.ErrorContext(ctx, "marshal run event failed", "err", err)
		return
	}

	_, _, err = s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(run.RunID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		log.ErrorContext(ctx, "publish run event failed", "err", err, "run_id", run.RunID)
	}
}

func (s *saramaProducer) Close() error {
	return s.producer.Close()
}
