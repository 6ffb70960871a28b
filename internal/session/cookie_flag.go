package session

import (
	"context"
	"sync"
	"time"
)

// CookieFlag holds the credential cookie the HTTP layer mirrors onto every
// response. It carries no role information.
type CookieFlag struct {
	mu        sync.RWMutex
	name      string
	value     string
	expiresAt time.Time
	now       func() time.Time
}

// CookieState is a point-in-time view of the flag.
type CookieState struct {
	Name    string
	Value   string
	MaxAge  time.Duration
	Present bool
}

// NewCookieFlag creates an empty flag with the given cookie name.
func NewCookieFlag(name string) *CookieFlag {
	return &CookieFlag{name: name, now: time.Now}
}

// Name returns the cookie name.
func (f *CookieFlag) Name() string {
	return f.name
}

func (f *CookieFlag) Set(_ context.Context, credential string, maxAge time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = credential
	f.expiresAt = f.now().Add(maxAge)
	return nil
}

func (f *CookieFlag) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = ""
	f.expiresAt = time.Time{}
	return nil
}

// State reports the remaining lifetime of the flag. An expired flag is
// reported as absent.
func (f *CookieFlag) State() CookieState {
	f.mu.RLock()
	defer f.mu.RUnlock()

	state := CookieState{Name: f.name}
	if f.value == "" {
		return state
	}
	remaining := f.expiresAt.Sub(f.now())
	if remaining <= 0 {
		return state
	}
	state.Value = f.value
	state.MaxAge = remaining
	state.Present = true
	return state
}
