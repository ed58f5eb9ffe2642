// Package institutions resolves the institution behind an address, inventing one the
// first time an address is seen and remembering it afterwards.
package institutions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jrsteele09/go-counterparty-client/internal/random"
	"github.com/jrsteele09/go-counterparty-client/kvstore"
	"github.com/rs/zerolog/log"
)

const (
	bucket  = "institutions"
	MaxRisk = 5
)

type Institution struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Category string `json:"category"`
	Risk     int    `json:"risk"` // 0 (none) to MaxRisk
}

// Repo retrieves institutions by address.
type Repo struct {
	store kvstore.Store
	rng   *random.Generator
	lock  sync.Mutex // one generation per address
}

// Option customises a Repo.
type Option func(*Repo)

// WithGenerator sets the random generator (primarily for testing)
func WithGenerator(rng *random.Generator) Option {
	return func(r *Repo) {
		r.rng = rng
	}
}

func NewRepo(store kvstore.Store, options ...Option) *Repo {
	r := &Repo{store: store, rng: random.New()}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Retrieve returns the institution stored for address, generating and storing one if
// the address is new.
func (r *Repo) Retrieve(ctx context.Context, address string) (*Institution, error) {
	if address == "" {
		return nil, errors.New("[institutions Retrieve] address is required")
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	var institution Institution
	err := kvstore.GetJSON(ctx, r.store, bucket, address, &institution)
	if err == nil {
		return &institution, nil
	}
	if !errors.Is(err, kvstore.ErrNotFound) {
		return nil, fmt.Errorf("[institutions Retrieve] %w", err)
	}

	generated := r.generate(address)
	if err := kvstore.SetJSON(ctx, r.store, bucket, address, generated); err != nil {
		return nil, fmt.Errorf("[institutions Retrieve] %w", err)
	}
	log.Debug().Str("address", address).Str("institution", generated.Name).Msg("Generated institution")
	return generated, nil
}

func (r *Repo) generate(address string) *Institution {
	name := capitalize(random.Sample(r.rng, businessWords)) + " " + capitalize(random.Sample(r.rng, businessWords))
	if r.rng.CoinToss(0.5) {
		name += " " + capitalize(random.Sample(r.rng, businessWords))
	}
	return &Institution{
		Name:     name,
		Address:  address,
		Category: capitalize(random.Sample(r.rng, businessCategories)),
		Risk:     r.rng.RangeInt(0, MaxRisk+1),
	}
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}

var businessCategories = []string{
	"finance", "fashion", "games", "gambling", "banks", "tapestry",
	"food", "agribusiness", "cripto", "tech", "art", "entertainment",
}

var businessWords = []string{
	"quick", "lightning", "steep", "business", "cash", "grab", "blue", "tornado",
	"bot", "money", "parts", "fashion", "games", "products", "production", "inc",
	"industry", "feast", "green", "red", "yellow", "pink", "orange", "pineapple",
	"doors", "snacks", "tasty", "healthy", "electrics", "brave", "brain", "smart",
	"monkey", "leap", "boot", "top", "deals", "mr", "fire",
}
