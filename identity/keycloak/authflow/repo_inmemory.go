package authflow

import (
	"errors"
	"sync"
)

// ErrStateNotFound is returned when no login is waiting on the state parameter.
var ErrStateNotFound = errors.New("state not found")

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu    sync.RWMutex
	flows map[string]*Flow
}

// NewInMemoryRepo creates a new in-memory auth flow repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		flows: make(map[string]*Flow),
	}
}

// Upsert stores or replaces the flow waiting on state
func (r *InMemoryRepo) Upsert(state string, flow *Flow) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if flow == nil {
		return errors.New("flow cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.flows[state] = flow
	return nil
}

// Get retrieves the flow waiting on state. Flows carry a result channel,
// so the stored pointer is shared rather than copied.
func (r *InMemoryRepo) Get(state string) (*Flow, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	flow, exists := r.flows[state]
	if !exists {
		return nil, ErrStateNotFound
	}
	return flow, nil
}

// Delete removes a flow
func (r *InMemoryRepo) Delete(state string) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.flows, state)
	return nil
}
