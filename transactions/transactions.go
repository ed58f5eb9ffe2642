// Package transactions simulates transfers between a client and an institution and
// keeps a record of them.
package transactions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-counterparty-client/clients"
	"github.com/jrsteele09/go-counterparty-client/institutions"
	apperrors "github.com/jrsteele09/go-counterparty-client/internal/errors"
	"github.com/jrsteele09/go-counterparty-client/internal/random"
	"github.com/jrsteele09/go-counterparty-client/kvstore"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const bucket = "transactions"

var ErrZeroAmount = errors.New("amount must not be zero")

type Transaction struct {
	ID          string                   `json:"id"`
	ClientID    string                   `json:"clientId"`
	Address     string                   `json:"address"`
	Institution institutions.Institution `json:"institution"`
	Amount      decimal.Decimal          `json:"amount"`
	CreatedAt   time.Time                `json:"createdAt"`
}

// Service records simulated transactions and keeps client balances in step.
type Service struct {
	store        kvstore.Store
	clients      clients.Repo
	institutions *institutions.Repo
	rng          *random.Generator
	nowTime      func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithGenerator sets the generator used for random addresses (primarily for testing)
func WithGenerator(rng *random.Generator) Option {
	return func(s *Service) {
		s.rng = rng
	}
}

func NewService(store kvstore.Store, clientRepo clients.Repo, institutionRepo *institutions.Repo, options ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("[transactions NewService] store is required")
	}
	if clientRepo == nil {
		return nil, errors.New("[transactions NewService] client repo is required")
	}
	if institutionRepo == nil {
		return nil, errors.New("[transactions NewService] institution repo is required")
	}

	s := &Service{
		store:        store,
		clients:      clientRepo,
		institutions: institutionRepo,
		rng:          random.New(),
		nowTime:      time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Simulate moves amount between the client and the institution at address.
// A positive amount credits the client. An empty address is replaced by a random one.
func (s *Service) Simulate(ctx context.Context, clientID string, amount decimal.Decimal, address string) (*Transaction, error) {
	if amount.IsZero() {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, ErrZeroAmount)
	}
	if address == "" {
		address = s.rng.Address()
	}
	if err := clients.ValidateAddress(address); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, err)
	}

	if _, err := s.clients.Get(ctx, clientID); err != nil {
		return nil, err
	}
	institution, err := s.institutions.Retrieve(ctx, address)
	if err != nil {
		return nil, err
	}

	tx := &Transaction{
		ID:          uuid.New().String(),
		ClientID:    clientID,
		Address:     address,
		Institution: *institution,
		Amount:      amount,
		CreatedAt:   s.nowTime().UTC(),
	}
	// The balance moves first so a stored transaction is always reflected in it
	if _, err := s.clients.AdjustBalance(ctx, clientID, amount); err != nil {
		return nil, err
	}
	if err := kvstore.SetJSON(ctx, s.store, bucket, tx.ID, tx); err != nil {
		if _, revertErr := s.clients.AdjustBalance(ctx, clientID, amount.Neg()); revertErr != nil {
			log.Err(revertErr).Str("clientId", clientID).Msg("Failed to revert balance")
		}
		return nil, fmt.Errorf("[transactions Simulate] %w", err)
	}

	log.Info().
		Str("transactionId", tx.ID).
		Str("clientId", clientID).
		Str("amount", amount.String()).
		Str("institution", institution.Name).
		Msg("Transaction simulated")
	return tx, nil
}

// ListByClient returns the client's transactions, oldest first.
func (s *Service) ListByClient(ctx context.Context, clientID string) ([]*Transaction, error) {
	keys, err := s.store.Keys(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("[transactions ListByClient] %w", err)
	}

	list := make([]*Transaction, 0)
	for _, key := range keys {
		var tx Transaction
		if err := kvstore.GetJSON(ctx, s.store, bucket, key, &tx); err != nil {
			if errors.Is(err, kvstore.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("[transactions ListByClient] %w", err)
		}
		if tx.ClientID == clientID {
			list = append(list, &tx)
		}
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}
