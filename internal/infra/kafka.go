// README: Kafka writer initialization for trip events.
package infra

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// kafkaBatchTimeout bounds how long a single event waits for its batch to flush.
const kafkaBatchTimeout = 5 * time.Millisecond

// NewKafkaWriter returns a synchronous writer that flushes every message on
// its own, so a publish costs one broker round trip.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              1,
		BatchTimeout:           kafkaBatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}
