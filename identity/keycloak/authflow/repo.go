package authflow

import (
	"sync"
	"time"
)

// Result is what the authorization callback delivers to a waiting login.
type Result struct {
	Code string
	Err  error
}

// Flow is the client-side state of one authorization-code login.
type Flow struct {
	State        string
	CodeVerifier string
	Nonce        string
	CreatedAt    time.Time

	result chan Result
	once   sync.Once
}

func NewFlow(state, codeVerifier, nonce string, createdAt time.Time) *Flow {
	return &Flow{
		State:        state,
		CodeVerifier: codeVerifier,
		Nonce:        nonce,
		CreatedAt:    createdAt,
		result:       make(chan Result, 1),
	}
}

// Deliver hands the callback result to the waiting login. Only the first
// delivery is accepted; later ones report false.
func (f *Flow) Deliver(r Result) bool {
	delivered := false
	f.once.Do(func() {
		f.result <- r
		delivered = true
	})
	return delivered
}

// Result receives exactly one value once the callback has been delivered.
func (f *Flow) Result() <-chan Result {
	return f.result
}

type Repo interface {
	Upsert(state string, flow *Flow) error
	Get(state string) (*Flow, error)
	Delete(state string) error
}
