package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/savings-portal/internal/domain"
	"github.com/spec-kit/savings-portal/internal/events"
)

var (
	ErrEmptyCredential  = errors.New("session: credential is empty")
	ErrInvalidPrincipal = errors.New("session: principal is invalid")
)

// Snapshot is what durable storage holds between restarts.
type Snapshot struct {
	Credential string
	Principal  *domain.Principal
}

// Options configures a Store.
type Options struct {
	Storage    Storage
	Flag       Flag
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	DefaultTTL time.Duration
	MaxTTL     time.Duration
}

// Store is the single writer of the credential and principal. Durable
// storage, the cookie flag and the in-memory view change together under one
// lock.
type Store struct {
	mu         sync.RWMutex
	storage    Storage
	flag       Flag
	dispatcher events.Dispatcher
	logger     *zap.Logger
	defaultTTL time.Duration
	maxTTL     time.Duration

	credential string
	principal  *domain.Principal
	state      domain.ResolutionState
}

// NewStore builds a store in the unresolved state.
func NewStore(opts Options) *Store {
	if opts.Storage == nil {
		opts.Storage = NewMemoryStorage()
	}
	if opts.Flag == nil {
		opts.Flag = NewCookieFlag("auth_token")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = 15 * time.Minute
	}
	return &Store{
		storage:    opts.Storage,
		flag:       opts.Flag,
		dispatcher: opts.Dispatcher,
		logger:     opts.Logger,
		defaultTTL: opts.DefaultTTL,
		maxTTL:     opts.MaxTTL,
		state:      domain.StateUnresolved,
	}
}

// Establish persists the credential and principal, sets the cookie flag and
// marks the session authenticated. The flag lives at most ttlHint when
// ttlHint is positive.
func (s *Store) Establish(ctx context.Context, credential string, principal *domain.Principal, ttlHint time.Duration) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return ErrEmptyCredential
	}
	if principal == nil || principal.ID == "" || !principal.Role.Valid() {
		return ErrInvalidPrincipal
	}
	snapshot := principal.Clone()
	encoded, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode principal: %w", err)
	}
	ttl := s.FlagTTL(ttlHint)

	s.mu.Lock()
	if err := s.writeDurable(ctx, credential, encoded); err != nil {
		s.restoreDurable(ctx)
		s.mu.Unlock()
		return err
	}
	if err := s.flag.Set(ctx, credential, ttl); err != nil {
		s.restoreDurable(ctx)
		s.mu.Unlock()
		return fmt.Errorf("set session flag: %w", err)
	}
	s.credential = credential
	s.principal = snapshot
	s.state = domain.StateResolvedAuthenticated
	s.mu.Unlock()

	s.logger.Info("session established",
		zap.String("principal_id", snapshot.ID),
		zap.String("role", string(snapshot.Role)),
		zap.Duration("flag_ttl", ttl))
	s.publish(ctx, events.NewEvent(events.EventSessionEstablished, domain.StateResolvedAuthenticated, snapshot,
		events.SessionEstablishedPayload{FlagTTL: ttl}))
	return nil
}

// Clear removes the credential everywhere and marks the session
// unauthenticated. In-memory state is always reset; storage failures are
// returned joined. A cleared event is published when either memory or
// durable storage held a credential.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	hadSession := s.credential != "" || s.durableCredentialPresent(ctx)
	prev := s.principal
	errs := []error{
		s.storage.Delete(ctx, KeyCredential),
		s.storage.Delete(ctx, KeyPrincipal),
		s.flag.Clear(ctx),
	}
	s.credential = ""
	s.principal = nil
	s.state = domain.StateResolvedUnauthenticated
	s.mu.Unlock()

	err := errors.Join(errs...)
	if err != nil {
		s.logger.Warn("session clear incomplete", zap.Error(err))
	}
	if hadSession {
		s.logger.Info("session cleared")
		s.publish(ctx, events.NewEvent(events.EventSessionCleared, domain.StateResolvedUnauthenticated, prev, nil))
	}
	return err
}

// CurrentPrincipal returns a copy of the principal, or nil.
func (s *Store) CurrentPrincipal() *domain.Principal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal.Clone()
}

// CurrentResolutionState returns the resolution state.
func (s *Store) CurrentResolutionState() domain.ResolutionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Credential returns the in-memory bearer credential, or "".
func (s *Store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// Persisted reads the durable snapshot without touching in-memory state.
// A missing credential yields an empty snapshot. An unreadable principal is
// dropped; the credential is still returned.
func (s *Store) Persisted(ctx context.Context) (Snapshot, error) {
	raw, err := s.storage.Get(ctx, KeyCredential)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("read credential: %w", err)
	}
	snap := Snapshot{Credential: strings.TrimSpace(string(raw))}
	if snap.Credential == "" {
		return Snapshot{}, nil
	}

	rawPrincipal, err := s.storage.Get(ctx, KeyPrincipal)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("cached principal unreadable", zap.Error(err))
		}
		return snap, nil
	}
	var principal domain.Principal
	if err := json.Unmarshal(rawPrincipal, &principal); err != nil {
		s.logger.Warn("cached principal corrupt", zap.Error(err))
		return snap, nil
	}
	snap.Principal = &principal
	return snap, nil
}

// FlagTTL returns the cookie lifetime used for a given hint.
func (s *Store) FlagTTL(hint time.Duration) time.Duration {
	ttl := hint
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if s.maxTTL > 0 && ttl > s.maxTTL {
		ttl = s.maxTTL
	}
	return ttl
}

// durableCredentialPresent reports whether storage holds a credential.
// Caller holds s.mu.
func (s *Store) durableCredentialPresent(ctx context.Context) bool {
	raw, err := s.storage.Get(ctx, KeyCredential)
	return err == nil && strings.TrimSpace(string(raw)) != ""
}

func (s *Store) writeDurable(ctx context.Context, credential string, principal []byte) error {
	if err := s.storage.Set(ctx, KeyCredential, []byte(credential)); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	if err := s.storage.Set(ctx, KeyPrincipal, principal); err != nil {
		return fmt.Errorf("persist principal: %w", err)
	}
	return nil
}

// restoreDurable puts durable storage back to the in-memory view after a
// partial write. Caller holds s.mu.
func (s *Store) restoreDurable(ctx context.Context) {
	var err error
	if s.credential == "" {
		err = errors.Join(
			s.storage.Delete(ctx, KeyCredential),
			s.storage.Delete(ctx, KeyPrincipal),
		)
	} else {
		encoded, encErr := json.Marshal(s.principal)
		if encErr != nil {
			err = encErr
		} else {
			err = s.writeDurable(ctx, s.credential, encoded)
		}
	}
	if err != nil {
		s.logger.Error("session rollback failed", zap.Error(err))
	}
}

func (s *Store) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("session event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}
