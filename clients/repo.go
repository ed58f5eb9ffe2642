package clients

import (
	"context"

	"github.com/jrsteele09/go-counterparty-client/internal/errors"
	"github.com/shopspring/decimal"
)

var ErrClientNotFound = errors.Wrapf(errors.ErrNotFound, "client")

type Repo interface {
	// Add validates params and stores a new client with a zero balance.
	// Ids are sequential ("1", "2", ...) and never reused.
	Add(ctx context.Context, params ClientParams) (*Client, error)
	Delete(ctx context.Context, clientID string) error
	Get(ctx context.Context, clientID string) (*Client, error)
	// List returns every client ordered by id.
	List(ctx context.Context) ([]*Client, error)
	GetByAddress(ctx context.Context, address string) (*Client, error)
	// AdjustBalance adds delta to the client's balance and returns the updated client.
	AdjustBalance(ctx context.Context, clientID string, delta decimal.Decimal) (*Client, error)
}
