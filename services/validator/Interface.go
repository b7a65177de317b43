/*
Package validator holds the transaction validators: pure, read-only checks that decide whether a
transaction may be accepted by a node.

A Validator reads current state through a state.Reader and returns a Result. Validators never write,
and given the same transaction and the same state they return the same Result. Reads are not isolated
from concurrent writes, so two transactions racing over the same input can both pass.
*/
package validator

import (
	"context"

	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state"
)

// Validator decides whether tx may be accepted.
type Validator func(ctx context.Context, tx model.Transaction, read state.Reader) *Result

// Result is the outcome of a validator. Treat it as immutable once returned.
type Result struct {
	Valid   bool           `json:"valid"`
	Error   string         `json:"error,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Valid returns an accepting result.
func Valid() *Result {
	return &Result{Valid: true}
}

// Invalid returns a rejecting result with the given error code.
func Invalid(code string, details map[string]any) *Result {
	return &Result{Error: code, Details: details}
}

// WithDetail returns a copy of r with key set in its details.
func (r *Result) WithDetail(key string, value any) *Result {
	details := make(map[string]any, len(r.Details)+1)
	for k, v := range r.Details {
		details[k] = v
	}

	details[key] = value

	return &Result{Valid: r.Valid, Error: r.Error, Details: details}
}

// Combine runs validators in order and returns the first failure unchanged.
func Combine(validators ...Validator) Validator {
	return func(ctx context.Context, tx model.Transaction, read state.Reader) *Result {
		for _, v := range validators {
			r := v(ctx, tx, read)
			if r == nil {
				return Invalid("validator returned no result", nil)
			}

			if !r.Valid {
				return r
			}
		}

		return Valid()
	}
}

// AcceptAll accepts every transaction.
func AcceptAll() Validator {
	return func(context.Context, model.Transaction, state.Reader) *Result {
		return Valid()
	}
}
