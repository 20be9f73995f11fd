package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"
)

const writerBatchTimeout = 10 * time.Millisecond

// NewWriter returns a synchronous writer that flushes each publish almost
// immediately instead of waiting out kafka-go's one second batch window.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           writerBatchTimeout,
		WriteTimeout:           5 * time.Second,
	}
}

func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
	})
}
