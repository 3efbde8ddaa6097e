package events

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sirupsen/logrus"
)

// LogAttempts writes an audit line per attempt event and acks it. It returns once
// messages is closed, which happens when the subscription context ends or the
// pub/sub is closed.
func LogAttempts(messages <-chan *message.Message, logger logrus.FieldLogger) {
	for msg := range messages {
		var event AttemptCompleted
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			logger.WithField("message_uuid", msg.UUID).WithError(err).Warn("undecodable attempt event")
			msg.Ack()
			continue
		}
		logger.WithFields(logrus.Fields{
			"attempt_id": event.AttemptID,
			"user_id":    event.UserID,
			"score":      event.Score,
		}).Info("attempt completed")
		msg.Ack()
	}
}
