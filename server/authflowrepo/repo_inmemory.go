package authflowrepo

import (
	"errors"
	"sync"
	"time"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu      sync.Mutex
	states  map[string]*AuthFlowState
	maxAge  time.Duration
	nowFunc func() time.Time
}

var _ Repo = (*InMemoryRepo)(nil)

// NewInMemoryRepo creates a new in-memory auth flow state repository whose entries expire after maxAge
func NewInMemoryRepo(maxAge time.Duration) *InMemoryRepo {
	return &InMemoryRepo{
		states:  make(map[string]*AuthFlowState),
		maxAge:  maxAge,
		nowFunc: time.Now,
	}
}

// WithNowFunc replaces the clock, for tests
func (r *InMemoryRepo) WithNowFunc(now func() time.Time) *InMemoryRepo {
	r.nowFunc = now
	return r
}

// Upsert stores or updates an auth flow state and drops expired ones
func (r *InMemoryRepo) Upsert(state string, authState *AuthFlowState) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if authState == nil {
		return errors.New("authState cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep()

	// Create a copy to prevent external modifications
	r.states[state] = &AuthFlowState{
		CodeVerifier: authState.CodeVerifier,
		Nonce:        authState.Nonce,
		CreatedAt:    authState.CreatedAt,
	}
	return nil
}

func (r *InMemoryRepo) Take(state string) (*AuthFlowState, error) {
	if state == "" {
		return nil, ErrStateNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	authState, exists := r.states[state]
	if !exists {
		return nil, ErrStateNotFound
	}
	delete(r.states, state)

	if r.expired(authState) {
		return nil, ErrStateNotFound
	}
	return authState, nil
}

// Len returns the number of pending states
func (r *InMemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

func (r *InMemoryRepo) sweep() {
	for k, v := range r.states {
		if r.expired(v) {
			delete(r.states, k)
		}
	}
}

func (r *InMemoryRepo) expired(s *AuthFlowState) bool {
	return r.maxAge > 0 && r.nowFunc().Sub(s.CreatedAt) > r.maxAge
}
