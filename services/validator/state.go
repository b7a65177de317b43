package validator

import (
	"context"
	"strings"

	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state"
)

// ProgramContext is what a program validator sees of one output.
type ProgramContext struct {
	URI     string
	Value   any
	Read    state.Reader
	Inputs  []string
	Outputs []model.Output
	Tx      model.Transaction
}

// Program validates the outputs written under a registered uri prefix.
type Program func(ctx context.Context, pc ProgramContext) *Result

type StateConfig struct {
	// Schema maps uri prefixes to the program governing outputs under them. Outputs under no
	// registered prefix are accepted.
	Schema map[string]Program
	// Verify enables signature checks on transactions that carry origin or sig.
	Verify VerifyFunc
	// ExtractMessage defaults to CanonicalMessage.
	ExtractMessage func(tx model.Transaction) (string, error)
	// RequireInputsExist rejects inputs that cannot be read.
	RequireInputsExist bool
	ValidateInput      func(ctx context.Context, uri string, tx model.Transaction, read state.Reader) *Result
	ValidateOutput     func(ctx context.Context, out model.Output, tx model.Transaction, read state.Reader) *Result
}

// NewStateValidator interprets {inputs, outputs} transaction data: shape, signature, inputs, then
// each output against the program registered for its longest matching prefix.
func NewStateValidator(cfg StateConfig) Validator {
	extractMessage := cfg.ExtractMessage
	if extractMessage == nil {
		extractMessage = CanonicalMessage
	}

	return func(ctx context.Context, tx model.Transaction, read state.Reader) *Result {
		data, r := parseStateData(tx)
		if r != nil {
			return r
		}

		if cfg.Verify != nil && data.Signed() {
			message, err := extractMessage(tx)
			if err != nil {
				return Invalid(model.CodeInvalidSignature, map[string]any{"reason": reason(err)})
			}

			if !cfg.Verify(data.Sig, message, data.Origin) {
				return Invalid(model.CodeInvalidSignature, map[string]any{"origin": data.Origin})
			}
		}

		for _, input := range data.Inputs {
			if cfg.RequireInputsExist {
				if _, err := read.Read(ctx, input); err != nil {
					return Invalid(model.CodeInputNotFound, map[string]any{"input": input})
				}
			}

			if cfg.ValidateInput != nil {
				if r := cfg.ValidateInput(ctx, input, tx, read); r == nil || !r.Valid {
					return orInvalid(r).WithDetail("input", input)
				}
			}
		}

		for _, out := range data.Outputs {
			if key := ProgramKey(cfg.Schema, out.URI); key != "" {
				r := cfg.Schema[key](ctx, ProgramContext{
					URI:     out.URI,
					Value:   out.Value,
					Read:    read,
					Inputs:  data.Inputs,
					Outputs: data.Outputs,
					Tx:      tx,
				})
				if r == nil || !r.Valid {
					return orInvalid(r).WithDetail("outputUri", out.URI)
				}
			}

			if cfg.ValidateOutput != nil {
				if r := cfg.ValidateOutput(ctx, out, tx, read); r == nil || !r.Valid {
					return orInvalid(r).WithDetail("outputUri", out.URI)
				}
			}
		}

		return Valid()
	}
}

// ProgramKey returns the longest key of schema that uri starts with, or "" when none does.
func ProgramKey[V any](schema map[string]V, uri string) string {
	best := ""

	for prefix := range schema {
		if len(prefix) > len(best) && strings.HasPrefix(uri, prefix) {
			best = prefix
		}
	}

	return best
}

func orInvalid(r *Result) *Result {
	if r == nil {
		return Invalid("validator returned no result", nil)
	}

	return r
}
