package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/domain"
)

func TestPublisherEmitsAttemptCompleted(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	pubsub := NewGoChannel(logger)
	messages, err := pubsub.Subscribe(context.Background(), "attempts")
	require.NoError(t, err)

	publisher := NewPublisher(pubsub, "attempts", logger)
	defer publisher.Close()

	attempt := domain.Attempt{
		ID:                "a1",
		UserID:            "u1",
		DisplayName:       "Alice",
		Score:             88,
		Percentage:        88,
		CategoryBreakdown: domain.NewCategoryBreakdown(),
		CreatedAt:         time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, publisher.AttemptRecorded(context.Background(), attempt))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, EventAttemptCompleted, msg.Metadata.Get("event_type"))
		var event AttemptCompleted
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, "a1", event.AttemptID)
		assert.Equal(t, 88, event.Score)
		assert.Equal(t, attempt.CreatedAt, event.CompletedAt)
	case <-time.After(time.Second):
		t.Fatal("expected attempt event")
	}
}
