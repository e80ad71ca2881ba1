// FILE: internal/service/publisher_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-docview/internal/dto"
	"ai-docview/internal/entity"
	"ai-docview/internal/mapper"
	"ai-docview/internal/pkg/logger"
	"ai-docview/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const PollEventsTopic = "docview.poll"

// EventMirror forwards events outside the process. *nats.Publisher
// implements it.
type EventMirror interface {
	Publish(ctx context.Context, event events.Event) error
}

type IPublisherService interface {
	Publish(ctx context.Context, payload dto.PollEventPayload) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
	mirror    EventMirror
	logger    logger.ILogger
}

// NewPublisherService publishes on the in-process bus. mirror may be nil.
func NewPublisherService(topicName string, pubSub *gochannel.GoChannel, mirror EventMirror, log logger.ILogger) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
		mirror:    mirror,
		logger:    log,
	}
}

func (ps *publisherService) Publish(ctx context.Context, payload dto.PollEventPayload) error {
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payloadJson)
	msg.Metadata.Set("kind", payload.Kind)
	if err := ps.pubSub.Publish(ps.topicName, msg); err != nil {
		return err
	}

	if ps.mirror != nil {
		data := map[string]interface{}{"progress": payload.Progress}
		if payload.Error != "" {
			data["error"] = payload.Error
		}
		event := events.NewDocumentEvent(payload.Kind, payload.DocumentId, data, payload.OccurredAt)
		if err := ps.mirror.Publish(ctx, event); err != nil {
			// The local bus already has the event; the mirror is best effort.
			ps.logger.Warn("Publisher", "Failed to mirror poll event", map[string]interface{}{
				"document_id": payload.DocumentId,
				"kind":        payload.Kind,
				"error":       err.Error(),
			})
		}
	}
	return nil
}

// PollEventObserver turns poll loop notifications into bus events.
type PollEventObserver struct {
	ctx       context.Context
	publisher IPublisherService
	mapper    *mapper.DocumentMapper
	now       func() time.Time
	logger    logger.ILogger
}

func NewPollEventObserver(ctx context.Context, publisher IPublisherService, now func() time.Time, log logger.ILogger) *PollEventObserver {
	return &PollEventObserver{
		ctx:       ctx,
		publisher: publisher,
		mapper:    mapper.NewDocumentMapper(),
		now:       now,
		logger:    log,
	}
}

func (o *PollEventObserver) OnProgress(documentId string, progress int) {
	o.publish(dto.PollEventPayload{
		DocumentId: documentId,
		Kind:       events.TypeDocumentProgress,
		Progress:   progress,
	})
}

func (o *PollEventObserver) OnReady(doc *entity.Document) {
	o.publish(dto.PollEventPayload{
		DocumentId: doc.Id,
		Kind:       events.TypeDocumentReady,
		Progress:   doc.Progress,
		Document:   o.mapper.ToDTO(doc),
	})
}

func (o *PollEventObserver) OnError(documentId string, err error) {
	o.publish(dto.PollEventPayload{
		DocumentId: documentId,
		Kind:       events.TypeDocumentError,
		Error:      err.Error(),
	})
}

func (o *PollEventObserver) publish(payload dto.PollEventPayload) {
	payload.OccurredAt = o.now()
	if err := o.publisher.Publish(o.ctx, payload); err != nil {
		o.logger.Error("Publisher", "Failed to publish poll event", map[string]interface{}{
			"document_id": payload.DocumentId,
			"kind":        payload.Kind,
			"error":       err.Error(),
		})
	}
}
