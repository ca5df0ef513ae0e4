package entity

import (
	"time"

	"github.com/google/uuid"
)

// AuditEvent is an immutable record of an accepted state transition,
// independent of the mutable document state. Events are append-only and
// never rewritten.
type AuditEvent struct {
	ID         string                 `json:"id"`
	EventType  string                 `json:"event_type"`
	DocumentID string                 `json:"document_id"`
	ActorID    string                 `json:"actor_id"`
	Timestamp  time.Time              `json:"timestamp"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}

// NewAuditEvent creates an audit event with a generated ID.
// The payload must include the monetary amount whenever the transition
// concerns money.
func NewAuditEvent(eventType, documentID, actorID string, at time.Time, payload map[string]interface{}) *AuditEvent {
	return &AuditEvent{
		ID:         uuid.NewString(),
		EventType:  eventType,
		DocumentID: documentID,
		ActorID:    actorID,
		Timestamp:  at,
		Payload:    payload,
	}
}
