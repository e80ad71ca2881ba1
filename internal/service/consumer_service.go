// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"

	"ai-docview/internal/dto"
	"ai-docview/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// PollEventHandler renders one event. Errors are logged; the event is not
// redelivered.
type PollEventHandler func(ctx context.Context, payload dto.PollEventPayload) error

type IConsumerService interface {
	Consume(ctx context.Context, handler PollEventHandler) error
}

type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	logger    logger.ILogger
}

func NewConsumerService(pubSub *gochannel.GoChannel, topicName string, log logger.ILogger) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		logger:    log,
	}
}

// Consume subscribes and dispatches in the background until ctx is done.
func (cs *consumerService) Consume(ctx context.Context, handler PollEventHandler) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg, handler)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message, handler PollEventHandler) {
	var payload dto.PollEventPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("Consumer", "Failed to unmarshal poll event", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite redelivery
		return
	}

	if err := handler(ctx, payload); err != nil {
		cs.logger.Warn("Consumer", "Poll event handler failed", map[string]interface{}{
			"document_id": payload.DocumentId,
			"kind":        payload.Kind,
			"error":       err.Error(),
		})
	}
	msg.Ack()
}
