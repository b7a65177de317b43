package datanode

import (
	"context"
	"strings"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
)

// Materializer turns one accepted transaction into stored state.
type Materializer func(ctx context.Context, tx model.Transaction, mc *Context) error

// Materializers runs each materializer in turn and stops at the first error.
func Materializers(ms ...Materializer) Materializer {
	return func(ctx context.Context, tx model.Transaction, mc *Context) error {
		for _, m := range ms {
			if err := m(ctx, tx, mc); err != nil {
				return err
			}
		}

		return nil
	}
}

// ParseMaterializers builds a materializer from a comma separated list of names: utxo, txn.
func ParseMaterializers(names string, utxoPrefixes ...string) (Materializer, error) {
	var ms []Materializer

	for _, name := range strings.Split(names, ",") {
		switch strings.TrimSpace(name) {
		case "utxo":
			ms = append(ms, UTXOMaterializer(utxoPrefixes...))
		case "txn":
			ms = append(ms, TransactionMaterializer())
		case "":
		default:
			return nil, errors.NewConfigurationError("unknown materializer %q", name)
		}
	}

	if len(ms) == 0 {
		return nil, errors.NewConfigurationError("no materializer configured")
	}

	if len(ms) == 1 {
		return ms[0], nil
	}

	return Materializers(ms...), nil
}

// UTXOMaterializer applies state transactions to a UTXO set. Inputs that hold a UTXO record are marked
// spent by the transaction, outputs under one of the prefixes (utxo:// by default) become unspent records
// owned by the first path segment of their URI, other outputs are stored as plain values.
// Transactions that are not state data are ignored.
func UTXOMaterializer(prefixes ...string) Materializer {
	if len(prefixes) == 0 {
		prefixes = []string{"utxo://"}
	}

	isUTXO := func(uri string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(uri, p) {
				return true
			}
		}

		return false
	}

	return func(ctx context.Context, tx model.Transaction, mc *Context) error {
		data, err := model.ParseStateData(tx.Data)
		if err != nil {
			return nil
		}

		for _, input := range data.Inputs {
			if err = spend(ctx, mc, input, tx.URI); err != nil {
				return err
			}
		}

		meta := sourceMeta(mc)

		for _, out := range data.Outputs {
			if !isUTXO(out.URI) {
				if _, err = mc.Store(ctx, out.URI, out.Value, meta); err != nil {
					return err
				}

				continue
			}

			utxo := model.UTXORecord{
				Value:     out.Value,
				Owner:     model.OwnerFromURI(out.URI),
				CreatedBy: tx.URI,
			}

			if _, err = mc.Store(ctx, out.URI, utxo, meta); err != nil {
				return err
			}
		}

		return nil
	}
}

func spend(ctx context.Context, mc *Context, input, spentBy string) error {
	rec, err := mc.Read(ctx, input)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil
		}

		return errors.NewStorageError("failed to read input %s", input, err)
	}

	utxo, ok := model.ParseUTXORecord(rec.Data)
	if !ok {
		return nil
	}

	var meta map[string]any
	if m, isMap := rec.Data.(map[string]any); isMap {
		if _, bare := m["owner"]; !bare {
			_, meta = Unwrap(rec.Data)
		}
	}

	// utxo may point into the backend's own copy of the record
	spent := *utxo
	spent.Spent = true
	spent.SpentBy = spentBy

	_, err = mc.Store(ctx, input, spent, meta)

	return err
}

// TransactionMaterializer stores every transaction's data under its own URI with an accepted status.
func TransactionMaterializer() Materializer {
	return func(ctx context.Context, tx model.Transaction, mc *Context) error {
		meta := sourceMeta(mc)
		if meta == nil {
			meta = map[string]any{}
		}

		meta["status"] = "accepted"

		_, err := mc.Store(ctx, tx.URI, tx.Data, meta)

		return err
	}
}

func sourceMeta(mc *Context) map[string]any {
	if mc.Source == "" {
		return nil
	}

	return map[string]any{"source": mc.Source}
}
