// Package bootstrap reconciles a persisted session against the backend once
// per application start.
package bootstrap

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/savings-portal/internal/auth"
	"github.com/spec-kit/savings-portal/internal/domain"
	"github.com/spec-kit/savings-portal/internal/events"
	"github.com/spec-kit/savings-portal/internal/session"
)

// API is the part of the backend the bootstrapper calls.
type API interface {
	Refresh(ctx context.Context) (*domain.AuthResult, error)
	Me(ctx context.Context, token string) (*domain.Principal, error)
}

// Via names the path that resolved a bootstrap pass.
type Via string

const (
	ViaWhoAmI  Via = "whoami"
	ViaRefresh Via = "refresh"
	ViaNone    Via = "none"
)

// Outcome is the result of one bootstrap pass.
type Outcome struct {
	State    domain.ResolutionState
	Via      Via
	Duration time.Duration
}

// Options configures a Bootstrapper.
type Options struct {
	Logger      *zap.Logger
	Dispatcher  events.Dispatcher
	CallTimeout time.Duration
}

// Bootstrapper decides whether a persisted credential is still good.
// Network failures count as authentication failures.
type Bootstrapper struct {
	store      *session.Store
	api        API
	logger     *zap.Logger
	dispatcher events.Dispatcher
	timeout    time.Duration
	group      singleflight.Group
	now        func() time.Time
}

// New builds a bootstrapper writing through store.
func New(store *session.Store, api API, opts Options) *Bootstrapper {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 5 * time.Second
	}
	return &Bootstrapper{
		store:      store,
		api:        api,
		logger:     opts.Logger,
		dispatcher: opts.Dispatcher,
		timeout:    opts.CallTimeout,
		now:        time.Now,
	}
}

// Run performs a bootstrap pass. Concurrent callers share the pass already
// in flight and all receive its outcome.
func (b *Bootstrapper) Run(ctx context.Context) Outcome {
	v, _, _ := b.group.Do("bootstrap", func() (interface{}, error) {
		return b.run(ctx), nil
	})
	return v.(Outcome)
}

func (b *Bootstrapper) run(ctx context.Context) Outcome {
	start := b.now()
	out := b.resolve(ctx)
	out.Duration = b.now().Sub(start)

	b.logger.Info("session bootstrap resolved",
		zap.String("state", string(out.State)),
		zap.String("via", string(out.Via)),
		zap.Duration("duration", out.Duration))
	if b.dispatcher != nil {
		event := events.NewEvent(events.EventBootstrapResolved, out.State, b.store.CurrentPrincipal(),
			events.BootstrapResolvedPayload{Via: string(out.Via), Duration: out.Duration})
		if err := b.dispatcher.Publish(ctx, event); err != nil {
			b.logger.Warn("bootstrap event handler failed", zap.Error(err))
		}
	}
	return out
}

func (b *Bootstrapper) resolve(ctx context.Context) Outcome {
	snap, err := b.store.Persisted(ctx)
	if err != nil {
		b.logger.Warn("persisted session unreadable", zap.Error(err))
		snap = session.Snapshot{}
	}

	if snap.Credential != "" {
		if b.confirm(ctx, snap) {
			return Outcome{State: domain.StateResolvedAuthenticated, Via: ViaWhoAmI}
		}
	}
	if b.refresh(ctx) {
		return Outcome{State: domain.StateResolvedAuthenticated, Via: ViaRefresh}
	}
	if err := b.store.Clear(ctx); err != nil {
		b.logger.Warn("clearing stale session", zap.Error(err))
	}
	return Outcome{State: domain.StateResolvedUnauthenticated, Via: ViaNone}
}

// confirm asks who-am-I with the persisted credential and re-establishes it
// with the fresh principal merged over the cached one.
func (b *Bootstrapper) confirm(ctx context.Context, snap session.Snapshot) bool {
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	fresh, err := b.api.Me(callCtx, snap.Credential)
	if err != nil {
		b.logger.Info("who-am-I rejected persisted credential", zap.Error(err))
		return false
	}

	merged := domain.Merge(snap.Principal, fresh)
	if err := b.store.Establish(ctx, snap.Credential, merged, auth.TokenTTL(snap.Credential, b.now())); err != nil {
		b.logger.Warn("re-establishing session failed", zap.Error(err))
		return false
	}
	return true
}

func (b *Bootstrapper) refresh(ctx context.Context) bool {
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	res, err := b.api.Refresh(callCtx)
	if err != nil {
		b.logger.Info("refresh exchange yielded no session", zap.Error(err))
		return false
	}
	ttl := res.ExpiresIn
	if ttl <= 0 {
		ttl = auth.TokenTTL(res.Token, b.now())
	}
	if err := b.store.Establish(ctx, res.Token, res.Principal, ttl); err != nil {
		b.logger.Warn("establishing refreshed session failed", zap.Error(err))
		return false
	}
	return true
}
