package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/savings-portal/internal/domain"
	"github.com/spec-kit/savings-portal/internal/events"
	"github.com/spec-kit/savings-portal/internal/session"
)

type recordedCounts struct {
	transitions []string
	bootstraps  []string
}

func (r *recordedCounts) RecordSessionTransition(kind string) {
	r.transitions = append(r.transitions, kind)
}

func (r *recordedCounts) RecordBootstrapOutcome(state, via string) {
	r.bootstraps = append(r.bootstraps, state+"/"+via)
}

func TestSessionAudit_RecordsStoreTransitions(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	core, logs := observer.New(zap.InfoLevel)
	counts := &recordedCounts{}
	NewSessionAuditService(dispatcher, zap.New(core), counts).RegisterHandlers()

	store := session.NewStore(session.Options{Dispatcher: dispatcher})
	ctx := context.Background()
	require.NoError(t, store.Establish(ctx, "tok", &domain.Principal{ID: "u-1", Role: domain.RoleUser}, time.Minute))
	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	assert.Equal(t, []string{"established", "cleared"}, counts.transitions)

	established := logs.FilterMessage("SessionEstablished").All()
	require.Len(t, established, 1)
	assert.Equal(t, "u-1", established[0].ContextMap()["principal_id"])
	for _, entry := range logs.All() {
		for _, v := range entry.ContextMap() {
			assert.NotEqual(t, "tok", v)
		}
	}
}

func TestSessionAudit_RecordsBootstrapOutcome(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	counts := &recordedCounts{}
	NewSessionAuditService(dispatcher, zap.NewNop(), counts).RegisterHandlers()

	event := events.NewEvent(events.EventBootstrapResolved, domain.StateResolvedUnauthenticated, nil,
		events.BootstrapResolvedPayload{Via: "none"})
	require.NoError(t, dispatcher.Publish(context.Background(), event))

	assert.Equal(t, []string{"resolved-unauthenticated/none"}, counts.bootstraps)
}
