package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/sirupsen/logrus"

	"trivia-quiz-service/internal/domain"
)

const EventAttemptCompleted = "attempt.completed"

// AttemptCompleted is published once an attempt has been stored.
type AttemptCompleted struct {
	AttemptID         string                   `json:"attemptId"`
	UserID            string                   `json:"userId"`
	DisplayName       string                   `json:"displayName"`
	Score             int                      `json:"score"`
	Percentage        float64                  `json:"percentage"`
	CategoryBreakdown domain.CategoryBreakdown `json:"categoryBreakdown"`
	CompletedAt       time.Time                `json:"completedAt"`
}

// Publisher emits attempt events on a watermill publisher.
type Publisher struct {
	publisher message.Publisher
	topic     string
	logger    logrus.FieldLogger
}

func NewPublisher(publisher message.Publisher, topic string, logger logrus.FieldLogger) *Publisher {
	return &Publisher{publisher: publisher, topic: topic, logger: logger}
}

// NewKafkaPublisher connects a watermill Kafka publisher to brokers.
func NewKafkaPublisher(brokers []string, logger logrus.FieldLogger) (message.Publisher, error) {
	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, NewLoggerAdapter(logger))
	if err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}
	return publisher, nil
}

// NewGoChannel is the in-process pub/sub used when no broker is configured.
func NewGoChannel(logger logrus.FieldLogger) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, NewLoggerAdapter(logger))
}

// AttemptRecorded publishes an AttemptCompleted event for attempt.
func (p *Publisher) AttemptRecorded(ctx context.Context, attempt domain.Attempt) error {
	payload, err := json.Marshal(AttemptCompleted{
		AttemptID:         attempt.ID,
		UserID:            attempt.UserID,
		DisplayName:       attempt.DisplayName,
		Score:             attempt.Score,
		Percentage:        attempt.Percentage,
		CategoryBreakdown: attempt.CategoryBreakdown,
		CompletedAt:       attempt.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal attempt event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", EventAttemptCompleted)
	msg.Metadata.Set("user_id", attempt.UserID)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish attempt event: %w", err)
	}
	p.logger.WithFields(logrus.Fields{
		"attempt_id": attempt.ID,
		"topic":      p.topic,
	}).Debug("attempt event published")
	return nil
}

func (p *Publisher) Close() error {
	return p.publisher.Close()
}
