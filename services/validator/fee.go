package validator

import (
	"context"
	"strings"

	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state"
)

type FeeConfig struct {
	// Prefix identifies the fee output, the first output whose uri starts with it.
	Prefix string
	// Required computes the fee owed for the other outputs. Nil means no fee is owed.
	Required func(outputs []model.Output) float64
}

// Fee requires a numeric fee output paying at least the required amount.
func Fee(cfg FeeConfig) Validator {
	return func(_ context.Context, tx model.Transaction, _ state.Reader) *Result {
		data, r := parseStateData(tx)
		if r != nil {
			return r
		}

		feeIndex := -1

		for i, out := range data.Outputs {
			if strings.HasPrefix(out.URI, cfg.Prefix) {
				feeIndex = i
				break
			}
		}

		if feeIndex < 0 {
			return Invalid(model.CodeNoFeeOutput, map[string]any{"prefix": cfg.Prefix})
		}

		feeOutput := data.Outputs[feeIndex]

		paid, ok := model.ToFloat(feeOutput.Value)
		if !ok {
			return Invalid(model.CodeInvalidFeeType, map[string]any{"outputUri": feeOutput.URI})
		}

		var required float64

		if cfg.Required != nil {
			others := make([]model.Output, 0, len(data.Outputs)-1)
			others = append(others, data.Outputs[:feeIndex]...)
			others = append(others, data.Outputs[feeIndex+1:]...)

			required = cfg.Required(others)
		}

		if paid < required {
			return Invalid(model.CodeInsufficientFee, map[string]any{"paid": paid, "required": required})
		}

		return Valid()
	}
}

// FlatFee owes amount regardless of the outputs.
func FlatFee(amount float64) func([]model.Output) float64 {
	return func([]model.Output) float64 {
		return amount
	}
}

// PerOutputFee owes rate for every non fee output.
func PerOutputFee(rate float64) func([]model.Output) float64 {
	return func(outputs []model.Output) float64 {
		return rate * float64(len(outputs))
	}
}
