package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// KafkaAuditChannel 将触发事件镜像到 Kafka topic, 纯 best-effort 审计流,
// 不影响核心状态.
type KafkaAuditChannel struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaAuditChannel(producer *kafka.Producer, topic string) Channel {
	return &KafkaAuditChannel{
		producer: producer,
		topic:    topic,
	}
}

func (c *KafkaAuditChannel) Name() string {
	return "kafka_audit"
}

func (c *KafkaAuditChannel) Send(ctx context.Context, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	err = c.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &c.topic, Partition: kafka.PartitionAny},
		Key:            []byte(payload.AlertId),
		Value:          data,
	}, nil)
	if err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}
