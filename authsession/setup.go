package authsession

import (
	"context"
	"sync"
)

// SetupOutcome is the settled value of the bootstrap. A nil Err means the
// handshake completed; otherwise Err wraps errors.ErrBootstrapFailed.
// Either way the session state is final for the bootstrap when it is observed.
type SetupOutcome struct {
	Err error
}

// Ready reports whether the bootstrap completed without error.
func (o SetupOutcome) Ready() bool {
	return o.Err == nil
}

// Setup is the shared, single-settlement result of the bootstrap.
// Every waiter observes the same outcome; waiting never restarts the bootstrap.
type Setup struct {
	done    chan struct{}
	once    sync.Once
	outcome SetupOutcome
}

func newSetup() *Setup {
	return &Setup{done: make(chan struct{})}
}

// settle records outcome and releases all waiters. Only the first call has any effect.
func (s *Setup) settle(outcome SetupOutcome) bool {
	settled := false
	s.once.Do(func() {
		s.outcome = outcome
		close(s.done)
		settled = true
	})
	return settled
}

// Done is closed once the bootstrap has settled.
func (s *Setup) Done() <-chan struct{} {
	return s.done
}

// Outcome returns the settled outcome, or false while the bootstrap is pending.
func (s *Setup) Outcome() (SetupOutcome, bool) {
	select {
	case <-s.done:
		return s.outcome, true
	default:
		return SetupOutcome{}, false
	}
}

// Wait blocks until the bootstrap settles or ctx is done. Giving up on the wait
// leaves the bootstrap running.
func (s *Setup) Wait(ctx context.Context) (SetupOutcome, error) {
	select {
	case <-s.done:
		return s.outcome, nil
	case <-ctx.Done():
		return SetupOutcome{}, ctx.Err()
	}
}
