package events

import "time"

// Event types published by the poll loop and the mock document service.
const (
	TypeDocumentProgress = "document.progress"
	TypeDocumentReady    = "document.ready"
	TypeDocumentError    = "document.error"
	TypeDocumentDeleted  = "document.deleted"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the dotted type, e.g. "document.ready". It doubles
	// as the NATS subject suffix.
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewDocumentEvent builds an event about one document. The document id is
// always part of the payload.
func NewDocumentEvent(eventType, documentId string, data map[string]interface{}, at time.Time) BaseEvent {
	payload := make(map[string]interface{}, len(data)+1)
	for k, v := range data {
		payload[k] = v
	}
	payload["document_id"] = documentId
	return BaseEvent{Type: eventType, Data: payload, OccurredAt: at}
}
