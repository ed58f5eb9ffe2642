// Package alerts carries fire-and-forget user notifications to the next rendered page.
package alerts

import (
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
)

// maxPending bounds the queue when no page is rendered for a while.
const maxPending = 20

// Queue collects alerts until a page drains them. Safe for concurrent use.
type Queue struct {
	lock    sync.Mutex
	pending []string
}

func NewQueue() *Queue {
	return &Queue{}
}

// Alert records message for the user. It never blocks.
// A message already waiting to be shown is not queued twice.
func (q *Queue) Alert(message string) {
	log.Warn().Str("alert", message).Msg("User alert raised")

	q.lock.Lock()
	defer q.lock.Unlock()
	if slices.Contains(q.pending, message) {
		return
	}
	if len(q.pending) == maxPending {
		q.pending = q.pending[1:]
	}
	q.pending = append(q.pending, message)
}

// Drain returns the pending alerts in the order raised and empties the queue.
func (q *Queue) Drain() []string {
	q.lock.Lock()
	defer q.lock.Unlock()
	drained := q.pending
	q.pending = nil
	return drained
}

// Len reports how many alerts are waiting.
func (q *Queue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.pending)
}
