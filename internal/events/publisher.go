// Package events publishes exercise tracker domain events to Kafka.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/observability"
)

// Event types carried in the event_type header.
const (
	EventUserRegistered = "user.registered"
	EventExerciseLogged = "exercise.logged"
)

// UserRegistered is emitted after a user is stored.
type UserRegistered struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ExerciseLogged is emitted after an exercise entry is stored.
type ExerciseLogged struct {
	ExerciseID  string    `json:"exercise_id"`
	UserID      string    `json:"user_id"`
	Description string    `json:"description"`
	DurationMin int       `json:"duration_min"`
	Date        string    `json:"date"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes domain events to a single topic keyed by user id.
type KafkaPublisher struct {
	topic  string
	now    func() time.Time
	mu     sync.Mutex
	writer messageWriter
}

// NewKafkaPublisher creates a KafkaPublisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return newPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}, topic)
}

func newPublisher(writer messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{topic: topic, now: time.Now, writer: writer}
}

// UserRegistered implements domain.Notifier.
func (p *KafkaPublisher) UserRegistered(ctx context.Context, user domain.User) error {
	return p.publish(ctx, EventUserRegistered, user.ID, UserRegistered{
		UserID:     user.ID,
		Username:   user.Username,
		OccurredAt: p.now().UTC(),
	})
}

// ExerciseLogged implements domain.Notifier.
func (p *KafkaPublisher) ExerciseLogged(ctx context.Context, user domain.User, exercise domain.Exercise) error {
	return p.publish(ctx, EventExerciseLogged, user.ID, ExerciseLogged{
		ExerciseID:  exercise.ID,
		UserID:      user.ID,
		Description: exercise.Description,
		DurationMin: exercise.DurationMin,
		Date:        exercise.Date.Format("2006-01-02"),
		OccurredAt:  p.now().UTC(),
	})
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType, key string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", eventType, err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: body,
		Time:  p.now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}

	p.mu.Lock()
	writer := p.writer
	p.mu.Unlock()
	if writer == nil {
		observability.EventsFailed.WithLabelValues(eventType).Inc()
		return fmt.Errorf("publish %s: publisher closed", eventType)
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		observability.EventsFailed.WithLabelValues(eventType).Inc()
		return fmt.Errorf("publish %s to %s: %w", eventType, p.topic, err)
	}
	observability.EventsPublished.WithLabelValues(eventType).Inc()
	return nil
}

// Close flushes and releases the underlying writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.writer == nil {
		return nil
	}
	err := p.writer.Close()
	p.writer = nil
	return err
}
