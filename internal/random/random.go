// Package random generates the mock data used for counterparties and institutions.
package random

import (
	"math/rand/v2"
	"strings"
	"sync"
)

const (
	addressCharacters = "1234567890qwertyuiopasdfghjklzxcvbnm"
	addressMinLength  = 25
	addressMaxLength  = 34 // exclusive
)

// Generator is a goroutine-safe pseudo-random source. Not for secrets.
type Generator struct {
	lock sync.Mutex
	rng  *rand.Rand
}

// New returns a randomly seeded Generator.
func New() *Generator {
	return NewSeeded(rand.Uint64())
}

// NewSeeded returns a Generator with a fixed seed (primarily for testing)
func NewSeeded(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// RangeInt returns an int in [min, max). It returns min when the range is empty.
func (g *Generator) RangeInt(min, max int) int {
	if max <= min {
		return min
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	return min + g.rng.IntN(max-min)
}

// CoinToss returns true with the given probability.
func (g *Generator) CoinToss(probability float64) bool {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.rng.Float64() < probability
}

// Sample returns a random element of items, or the zero value when items is empty.
func Sample[T any](g *Generator, items []T) T {
	var zero T
	if len(items) == 0 {
		return zero
	}
	return items[g.RangeInt(0, len(items))]
}

// Address returns a random alphanumeric address of 25 to 33 characters in mixed case.
func (g *Generator) Address() string {
	length := g.RangeInt(addressMinLength, addressMaxLength)

	var sb strings.Builder
	sb.Grow(length)
	for sb.Len() < length {
		c := addressCharacters[g.RangeInt(0, len(addressCharacters))]
		if g.CoinToss(0.5) {
			c = strings.ToUpper(string(c))[0]
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
