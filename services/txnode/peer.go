package txnode

import (
	"context"

	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state"
	"github.com/bsv-blockchain/txgate/util/distributor"
	"github.com/bsv-blockchain/txgate/util/health"
)

// Peer is a downstream write target for accepted transactions.
type Peer = distributor.Peer

type storePeer struct {
	name  string
	store state.Store
}

// PeerFromStore makes a state store a peer: accepted transactions are written under their uri.
func PeerFromStore(name string, store state.Store) Peer {
	return &storePeer{name: name, store: store}
}

func (p *storePeer) Name() string {
	return p.name
}

func (p *storePeer) Write(ctx context.Context, uri string, value any) (*model.Record, error) {
	return p.store.Write(ctx, uri, value)
}

func (p *storePeer) Health(ctx context.Context) health.Report {
	return p.store.Health(ctx)
}

func (p *storePeer) Close(ctx context.Context) error {
	return p.store.Close(ctx)
}
