package notify

import (
	"context"
	"encoding/json"
	"fmt"

	rediscommon "mining-etl/common/redis"
	"mining-etl/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Notifier 运行结果通知
type Notifier interface {
	Notify(ctx context.Context, summary *models.RunSummary) error
}

// NopNotifier 不发送通知
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, summary *models.RunSummary) error { return nil }

// StreamNotifier 发布到 Redis Streams
type StreamNotifier struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

// NewStreamNotifier 创建 Redis Streams 通知
func NewStreamNotifier(client *redis.Client, stream string, logger *zap.Logger) *StreamNotifier {
	return &StreamNotifier{
		client: client,
		stream: stream,
		logger: logger,
	}
}

// Notify 以 JSON 形式写入 stream
func (n *StreamNotifier) Notify(ctx context.Context, summary *models.RunSummary) error {
	id, err := rediscommon.PublishJSONToStream(ctx, n.client, n.stream, summary)
	if err != nil {
		return fmt.Errorf("failed to publish run summary to stream %s: %w", n.stream, err)
	}

	n.logger.Debug("Run summary published",
		zap.String("stream", n.stream),
		zap.String("message_id", id),
		zap.String("run_id", summary.RunID),
	)
	return nil
}

// Publisher MQTT 发布接口（common/mqtt.Client 实现）
type Publisher interface {
	Publish(topic string, retained bool, payload []byte) error
}

// MQTTNotifier 发布到 MQTT topic
type MQTTNotifier struct {
	publisher Publisher
	topic     string
	logger    *zap.Logger
}

// NewMQTTNotifier 创建 MQTT 通知
func NewMQTTNotifier(publisher Publisher, topic string, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}
}

// Notify 发布运行结果（非 retained）
func (n *MQTTNotifier) Notify(ctx context.Context, summary *models.RunSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if err := n.publisher.Publish(n.topic, false, payload); err != nil {
		return err
	}

	n.logger.Debug("Run summary published",
		zap.String("topic", n.topic),
		zap.String("run_id", summary.RunID),
	)
	return nil
}
