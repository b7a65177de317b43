package validator

import (
	"context"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state"
)

type UTXOConfig struct {
	// ExtractSigner defaults to the origin field of state data.
	ExtractSigner func(tx model.Transaction) string
	// CanSpend decides whether signer may spend the record at uri. Defaults to signer == owner.
	CanSpend func(signer, owner, uri string, value any) bool
}

// UTXO checks that every input exists, is unspent and may be spent by the transaction signer.
func UTXO(cfg UTXOConfig) Validator {
	if cfg.ExtractSigner == nil {
		cfg.ExtractSigner = stateOrigin
	}

	if cfg.CanSpend == nil {
		cfg.CanSpend = func(signer, owner, _ string, _ any) bool {
			return signer == owner
		}
	}

	return func(ctx context.Context, tx model.Transaction, read state.Reader) *Result {
		data, r := parseStateData(tx)
		if r != nil {
			return r
		}

		signer := cfg.ExtractSigner(tx)

		for _, input := range data.Inputs {
			utxo, r := readUTXO(ctx, read, input)
			if r != nil {
				return r
			}

			if utxo.Spent {
				return Invalid(model.CodeInputAlreadySpent, map[string]any{"input": input, "spentBy": utxo.SpentBy})
			}

			if !cfg.CanSpend(signer, utxo.Owner, input, utxo.Value) {
				return Invalid(model.CodeNotOwner, map[string]any{"input": input, "owner": utxo.Owner, "signer": signer})
			}
		}

		return Valid()
	}
}

func stateOrigin(tx model.Transaction) string {
	data, err := model.ParseStateData(tx.Data)
	if err != nil {
		return ""
	}

	return data.Origin
}

func readUTXO(ctx context.Context, read state.Reader, uri string) (*model.UTXORecord, *Result) {
	record, err := read.Read(ctx, uri)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, Invalid(model.CodeInputNotFound, map[string]any{"input": uri})
		}

		return nil, Invalid(model.CodeInputNotFound, map[string]any{"input": uri, "reason": reason(err)})
	}

	utxo, ok := model.ParseUTXORecord(record.Data)
	if !ok {
		return nil, Invalid(model.CodeInputNotFound, map[string]any{"input": uri, "reason": "not a utxo record"})
	}

	return utxo, nil
}
