package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/savings-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionEstablished EventType = "session_established"
	EventSessionCleared     EventType = "session_cleared"
	EventBootstrapResolved  EventType = "bootstrap_resolved"
)

// Event represents a session lifecycle transition.
type Event struct {
	ID          string                 `json:"id"`
	Type        EventType              `json:"type"`
	State       domain.ResolutionState `json:"state"`
	PrincipalID string                 `json:"principal_id,omitempty"`
	Role        domain.Role            `json:"role,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Payload     interface{}            `json:"payload,omitempty"`
}

// NewEvent stamps an event with an id and the current time.
func NewEvent(eventType EventType, state domain.ResolutionState, principal *domain.Principal, payload interface{}) Event {
	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		State:     state,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if principal != nil {
		event.PrincipalID = principal.ID
		event.Role = principal.Role
	}
	return event
}

// SessionEstablishedPayload payload.
type SessionEstablishedPayload struct {
	FlagTTL time.Duration `json:"flag_ttl"`
}

// BootstrapResolvedPayload payload.
type BootstrapResolvedPayload struct {
	Via      string        `json:"via"`
	Duration time.Duration `json:"duration"`
}
