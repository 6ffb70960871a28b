package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/savings-portal/internal/events"
)

// SessionRecorder counts session lifecycle events.
type SessionRecorder interface {
	RecordSessionTransition(kind string)
	RecordBootstrapOutcome(state, via string)
}

// SessionAuditService writes an audit trail of session transitions and
// feeds them to metrics.
type SessionAuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	recorder   SessionRecorder
}

// NewSessionAuditService creates the service.
func NewSessionAuditService(dispatcher events.Dispatcher, logger *zap.Logger, recorder SessionRecorder) *SessionAuditService {
	return &SessionAuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
		recorder:   recorder,
	}
}

// RegisterHandlers subscribes to events.
func (a *SessionAuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventSessionEstablished, a.handleEstablished)
	a.dispatcher.Subscribe(events.EventSessionCleared, a.handleCleared)
	a.dispatcher.Subscribe(events.EventBootstrapResolved, a.handleBootstrapResolved)
}

func (a *SessionAuditService) handleEstablished(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("principal_id", event.PrincipalID),
		zap.String("role", string(event.Role)),
	}
	if payload, ok := event.Payload.(events.SessionEstablishedPayload); ok {
		fields = append(fields, zap.Duration("flag_ttl", payload.FlagTTL))
	}
	a.logger.Info("SessionEstablished", fields...)
	a.record("established")
	return nil
}

func (a *SessionAuditService) handleCleared(_ context.Context, event events.Event) error {
	a.logger.Info("SessionCleared",
		zap.String("event_id", event.ID),
		zap.String("principal_id", event.PrincipalID))
	a.record("cleared")
	return nil
}

func (a *SessionAuditService) handleBootstrapResolved(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.BootstrapResolvedPayload)
	a.logger.Info("BootstrapResolved",
		zap.String("event_id", event.ID),
		zap.String("state", string(event.State)),
		zap.String("via", payload.Via),
		zap.Duration("duration", payload.Duration))
	if a.recorder != nil {
		a.recorder.RecordBootstrapOutcome(string(event.State), payload.Via)
	}
	return nil
}

func (a *SessionAuditService) record(kind string) {
	if a.recorder != nil {
		a.recorder.RecordSessionTransition(kind)
	}
}
