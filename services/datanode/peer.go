package datanode

import (
	"context"

	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/services/txnode"
	"github.com/bsv-blockchain/txgate/stores/state"
	"github.com/bsv-blockchain/txgate/util/health"
	"go.uber.org/atomic"
)

// AsPeer makes a store and materializer usable as a transaction node peer. Every peer write
// materializes the transaction before it returns, so a materializer error fails the write.
func AsPeer(name string, store state.Store, materialize Materializer) txnode.Peer {
	return &materializingPeer{
		name:        name,
		store:       store,
		materialize: materialize,
		stored:      atomic.NewUint64(0),
	}
}

type materializingPeer struct {
	name        string
	store       state.Store
	materialize Materializer
	stored      *atomic.Uint64
}

func (p *materializingPeer) Name() string {
	return p.name
}

func (p *materializingPeer) Write(ctx context.Context, uri string, value any) (*model.Record, error) {
	tx := model.NewTransaction(uri, value)

	if err := p.materialize(ctx, tx, newContext(p.store, p.name, p.stored)); err != nil {
		return nil, err
	}

	return model.NewRecord(value), nil
}

func (p *materializingPeer) Health(ctx context.Context) health.Report {
	return p.store.Health(ctx)
}

func (p *materializingPeer) Close(ctx context.Context) error {
	return p.store.Close(ctx)
}
