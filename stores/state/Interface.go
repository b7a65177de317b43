// Package state is the storage client interface consumed by the transaction node,
// the validators and the data node, with a factory over the supported backends.
package state

import (
	"context"

	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state/options"
	"github.com/bsv-blockchain/txgate/util/health"
)

// Reader is the read access handed to validators.
type Reader interface {
	// Read returns errors.ErrNotFound when nothing is stored under uri.
	Read(ctx context.Context, uri string) (*model.Record, error)
}

// Store is a URI addressed key value store. Implementations must be safe for concurrent use.
type Store interface {
	Reader
	Write(ctx context.Context, uri string, value any) (*model.Record, error)
	List(ctx context.Context, prefix string, opts ...options.ListOption) (*model.ListResult, error)
	Delete(ctx context.Context, uri string) error
	Health(ctx context.Context) health.Report
	// Close releases the backend. Calling it more than once is safe.
	Close(ctx context.Context) error
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(ctx context.Context, uri string) (*model.Record, error)

func (f ReaderFunc) Read(ctx context.Context, uri string) (*model.Record, error) {
	return f(ctx, uri)
}
