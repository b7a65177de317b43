package validator

import (
	"context"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state"
)

type ConservationConfig struct {
	// InputValue extracts the value of a consumed input from its stored data.
	// Defaults to the value of a UTXO record, or the data itself when numeric.
	InputValue func(uri string, data any) float64
	// OutputValue defaults to the output value when numeric, or its "value" field.
	OutputValue func(out model.Output) float64
}

// Conservation requires the input values to sum to exactly the output values.
func Conservation(cfg ConservationConfig) Validator {
	if cfg.InputValue == nil {
		cfg.InputValue = DefaultInputValue
	}

	if cfg.OutputValue == nil {
		cfg.OutputValue = DefaultOutputValue
	}

	return func(ctx context.Context, tx model.Transaction, read state.Reader) *Result {
		data, r := parseStateData(tx)
		if r != nil {
			return r
		}

		// every input is read before anything is summed
		inputs := make([]any, 0, len(data.Inputs))

		for _, input := range data.Inputs {
			record, err := read.Read(ctx, input)
			if err != nil {
				details := map[string]any{"input": input}
				if !errors.Is(err, errors.ErrNotFound) {
					details["reason"] = reason(err)
				}

				return Invalid(model.CodeInputNotFound, details)
			}

			inputs = append(inputs, record.Data)
		}

		var inputSum, outputSum float64

		for i, input := range data.Inputs {
			inputSum += cfg.InputValue(input, inputs[i])
		}

		for _, out := range data.Outputs {
			outputSum += cfg.OutputValue(out)
		}

		if inputSum != outputSum {
			return Invalid(model.CodeConservationViolated, map[string]any{
				"inputSum":   inputSum,
				"outputSum":  outputSum,
				"difference": inputSum - outputSum,
			})
		}

		return Valid()
	}
}

func DefaultInputValue(_ string, data any) float64 {
	if utxo, ok := model.ParseUTXORecord(data); ok {
		v, _ := model.ToFloat(utxo.Value)
		return v
	}

	v, _ := model.ToFloat(data)

	return v
}

func DefaultOutputValue(out model.Output) float64 {
	if v, ok := model.ToFloat(out.Value); ok {
		return v
	}

	if m, ok := out.Value.(map[string]any); ok {
		v, _ := model.ToFloat(m["value"])
		return v
	}

	return 0
}
