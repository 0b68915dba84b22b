package kafkautil

import (
	"time"

	"github.com/fastprodman/wagerledger/internal/config"
	"github.com/segmentio/kafka-go"
)

const defaultBatchTimeout = 10 * time.Millisecond

// NewWriter returns a synchronous writer that waits for all in-sync replicas.
// Writes go out after BatchTimeout at most, so a single event is not held
// back waiting for a full batch.
func NewWriter(cfg config.KafkaConfig, topic string) *kafka.Writer {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = defaultBatchTimeout
	}

	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		WriteTimeout:           cfg.WriteTimeout,
		BatchTimeout:           batchTimeout,
		AllowAutoTopicCreation: true,
	}
}
