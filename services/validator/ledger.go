package validator

import (
	"context"

	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state"
)

// LedgerConfig describes a value ledger of UTXO records kept under Prefixes.
type LedgerConfig struct {
	Prefixes []string
	// FeePrefix enables the fee check when set.
	FeePrefix string
	MinFee    float64
	// Verify checks signatures of transactions that carry origin or sig. Nil skips signature checks.
	Verify VerifyFunc
}

// Ledger combines the checks a value ledger needs: structure, owned non negative outputs under the ledger
// prefixes, signatures, spendable inputs, conservation for transactions that spend, and the fee.
// Transactions without inputs issue new value.
func Ledger(cfg LedgerConfig) Validator {
	schema := make(map[string]Program, len(cfg.Prefixes))
	for _, prefix := range cfg.Prefixes {
		schema[prefix] = OwnedValue
	}

	validators := []Validator{
		Instrument("structural", Structural()),
		Instrument("state", NewStateValidator(StateConfig{Schema: schema, Verify: cfg.Verify})),
		Instrument("utxo", UTXO(UTXOConfig{})),
		Instrument("conservation", spending(Conservation(ConservationConfig{}))),
	}

	if cfg.FeePrefix != "" {
		validators = append(validators, Instrument("fee", Fee(FeeConfig{
			Prefix:   cfg.FeePrefix,
			Required: FlatFee(cfg.MinFee),
		})))
	}

	return Combine(validators...)
}

// OwnedValue accepts outputs whose uri names an owner and whose value is a non negative number.
func OwnedValue(_ context.Context, pc ProgramContext) *Result {
	if model.OwnerFromURI(pc.URI) == "" {
		return Invalid(model.CodeInvalidTransactionData, map[string]any{"reason": "output uri has no owner"})
	}

	v, ok := model.ToFloat(pc.Value)
	if !ok || v < 0 {
		return Invalid(model.CodeInvalidTransactionData, map[string]any{"reason": "output value must be a non-negative number"})
	}

	return Valid()
}

// spending runs v only for transactions that consume inputs.
func spending(v Validator) Validator {
	return func(ctx context.Context, tx model.Transaction, read state.Reader) *Result {
		data, r := parseStateData(tx)
		if r != nil {
			return r
		}

		if len(data.Inputs) == 0 {
			return Valid()
		}

		return v(ctx, tx, read)
	}
}
