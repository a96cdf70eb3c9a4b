// README: Trip lifecycle events published after a trip mutation commits.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

type Type string

const (
	TripCreated          Type = "created"
	TripApplied          Type = "applied"
	TripAccepted         Type = "accepted"
	TripClosed           Type = "closed"
	TripReopened         Type = "reopened"
	TripCancelled        Type = "cancelled"
	TripPassengerRemoved Type = "passenger_removed"
	TripPassengerLeft    Type = "passenger_cancelled"
)

type TripEvent struct {
	Type     Type      `json:"type"`
	TripID   string    `json:"trip_id"`
	Status   string    `json:"status"`
	ActorUID string    `json:"actor_uid"`
	UserID   string    `json:"user_id,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher delivers trip events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e TripEvent) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, TripEvent) error { return nil }
func (NopPublisher) Close() error                             { return nil }

// RedisPublisher fans events out over a pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, e TripEvent) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, b).Err()
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// KafkaPublisher writes events keyed by trip id so a trip's events stay ordered.
type KafkaPublisher struct {
	writer  *kafka.Writer
	timeout time.Duration
}

func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, timeout: 2 * time.Second}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e TripEvent) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.TripID), Value: b})
}

func (p *KafkaPublisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// Multi publishes to every wrapped publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e TripEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
