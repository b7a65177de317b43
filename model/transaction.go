// Package model holds the types shared by the transaction node, the data node and the validators.
package model

import (
	"github.com/bsv-blockchain/txgate/errors"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Transaction is a [uri, data] pair. The URI is its identity, Data is opaque to the node.
// A Transaction is never modified once submitted.
type Transaction struct {
	URI  string
	Data any
}

func NewTransaction(uri string, data any) Transaction {
	return Transaction{URI: uri, Data: data}
}

// MarshalJSON encodes the transaction as a two element array.
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{t.URI, t.Data})
}

func (t *Transaction) UnmarshalJSON(b []byte) error {
	var raw []jsoniter.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.NewInvalidArgumentError("transaction must be a [uri, data] array", err)
	}

	if len(raw) != 2 {
		return errors.NewInvalidArgumentError("transaction must have exactly 2 elements, got %d", len(raw))
	}

	var uri string
	if err := json.Unmarshal(raw[0], &uri); err != nil {
		return errors.NewInvalidArgumentError("transaction uri must be a string", err)
	}

	if uri == "" {
		return errors.NewInvalidArgumentError("transaction uri is empty")
	}

	var data any
	if err := json.Unmarshal(raw[1], &data); err != nil {
		return errors.NewInvalidArgumentError("transaction data is not valid JSON", err)
	}

	t.URI = uri
	t.Data = data

	return nil
}

// DecodeTransaction parses the [uri, data] wire shape.
func DecodeTransaction(b []byte) (Transaction, error) {
	var tx Transaction

	err := json.Unmarshal(b, &tx)

	return tx, err
}
