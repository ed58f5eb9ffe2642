package clients

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/jrsteele09/go-counterparty-client/internal/errors"
	"github.com/jrsteele09/go-counterparty-client/kvstore"
	"github.com/shopspring/decimal"
)

const (
	clientsBucket  = "clients"
	countersBucket = "counters"
	idGeneratorKey = "client-id-generator"
)

var _ Repo = (*KVRepo)(nil)

// KVRepo keeps clients in a kvstore.Store, one JSON entry per client.
type KVRepo struct {
	store kvstore.Store
	lock  sync.Mutex // guards the id counter and read-modify-write of balances
}

func NewKVRepo(store kvstore.Store) *KVRepo {
	return &KVRepo{store: store}
}

func (r *KVRepo) Add(ctx context.Context, params ClientParams) (*Client, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidInput, err)
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}

	client := &Client{
		ID:      id,
		Name:    params.Name,
		Address: params.Address,
		Balance: decimal.Zero,
	}
	if err := kvstore.SetJSON(ctx, r.store, clientsBucket, client.ID, client); err != nil {
		return nil, fmt.Errorf("[clients Add] %w", err)
	}
	return client, nil
}

func (r *KVRepo) nextID(ctx context.Context) (string, error) {
	var last int
	err := kvstore.GetJSON(ctx, r.store, countersBucket, idGeneratorKey, &last)
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return "", fmt.Errorf("[clients nextID] %w", err)
	}
	last++
	if err := kvstore.SetJSON(ctx, r.store, countersBucket, idGeneratorKey, last); err != nil {
		return "", fmt.Errorf("[clients nextID] %w", err)
	}
	return strconv.Itoa(last), nil
}

func (r *KVRepo) Delete(ctx context.Context, clientID string) error {
	if clientID == "" {
		return nil
	}
	return r.store.Delete(ctx, clientsBucket, clientID)
}

func (r *KVRepo) Get(ctx context.Context, clientID string) (*Client, error) {
	if clientID == "" {
		return nil, ErrClientNotFound
	}
	var client Client
	if err := kvstore.GetJSON(ctx, r.store, clientsBucket, clientID, &client); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrClientNotFound, clientID)
		}
		return nil, fmt.Errorf("[clients Get] %w", err)
	}
	return &client, nil
}

func (r *KVRepo) List(ctx context.Context) ([]*Client, error) {
	keys, err := r.store.Keys(ctx, clientsBucket)
	if err != nil {
		return nil, fmt.Errorf("[clients List] %w", err)
	}

	clients := make([]*Client, 0, len(keys))
	for _, key := range keys {
		client, err := r.Get(ctx, key)
		if errors.Is(err, errors.ErrNotFound) {
			continue // deleted since Keys
		}
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}

	sort.Slice(clients, func(i, j int) bool {
		return idLess(clients[i].ID, clients[j].ID)
	})
	return clients, nil
}

func (r *KVRepo) GetByAddress(ctx context.Context, address string) (*Client, error) {
	clients, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, client := range clients {
		if client.Address == address {
			return client, nil
		}
	}
	return nil, fmt.Errorf("%w: address %s", ErrClientNotFound, address)
}

func (r *KVRepo) AdjustBalance(ctx context.Context, clientID string, delta decimal.Decimal) (*Client, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	client, err := r.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	client.Balance = client.Balance.Add(delta)
	if err := kvstore.SetJSON(ctx, r.store, clientsBucket, client.ID, client); err != nil {
		return nil, fmt.Errorf("[clients AdjustBalance] %w", err)
	}
	return client, nil
}

// idLess orders numeric ids numerically and anything else lexically after them.
func idLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
