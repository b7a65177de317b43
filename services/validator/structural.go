package validator

import (
	"context"

	"github.com/bsv-blockchain/txgate/errors"
	"github.com/bsv-blockchain/txgate/model"
	"github.com/bsv-blockchain/txgate/stores/state"
)

// Structural rejects transactions whose data does not carry inputs and outputs arrays.
func Structural() Validator {
	return func(_ context.Context, tx model.Transaction, _ state.Reader) *Result {
		if _, r := parseStateData(tx); r != nil {
			return r
		}

		return Valid()
	}
}

func parseStateData(tx model.Transaction) (*model.StateData, *Result) {
	data, err := model.ParseStateData(tx.Data)
	if err != nil {
		return nil, Invalid(model.CodeInvalidTransactionData, map[string]any{"reason": reason(err)})
	}

	return data, nil
}

// reason renders a coded error chain as its messages only.
func reason(err error) string {
	var tErr *errors.Error
	if !errors.As(err, &tErr) {
		return err.Error()
	}

	msg := tErr.Message()

	if wrapped := tErr.WrappedErr(); wrapped != nil {
		msg += ": " + reason(wrapped)
	}

	return msg
}
