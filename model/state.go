package model

import (
	"strings"

	"github.com/bsv-blockchain/txgate/errors"
)

// Output is a [uri, value] pair.
type Output struct {
	URI   string
	Value any
}

func (o Output) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{o.URI, o.Value})
}

func (o *Output) UnmarshalJSON(b []byte) error {
	var raw []any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	out, err := outputFromSlice(raw)
	if err != nil {
		return err
	}

	*o = out

	return nil
}

// StateData is the {inputs, outputs} convention. Origin and Sig are present on signed transactions.
type StateData struct {
	Inputs  []string `json:"inputs"`
	Outputs []Output `json:"outputs"`
	Origin  string   `json:"origin,omitempty"`
	Sig     string   `json:"sig,omitempty"`
	Ts      any      `json:"ts,omitempty"`
	Nonce   any      `json:"nonce,omitempty"`
}

// Signed reports whether the data carries signer metadata.
func (s *StateData) Signed() bool {
	return s.Origin != "" || s.Sig != ""
}

// ParseStateData interprets transaction data as StateData. Inputs and outputs must both be present
// and array typed, every input a string and every output a [uri, value] pair.
func ParseStateData(data any) (*StateData, error) {
	switch d := data.(type) {
	case *StateData:
		if d == nil {
			return nil, errors.NewTxnInvalidError("data is nil")
		}

		return d, nil
	case StateData:
		return &d, nil
	case map[string]any:
		return stateDataFromMap(d)
	case nil:
		return nil, errors.NewTxnInvalidError("data is nil")
	default:
		// typed structs are normalised through their JSON form
		b, err := json.Marshal(d)
		if err != nil {
			return nil, errors.NewTxnInvalidError("data is not serializable", err)
		}

		var m map[string]any
		if err = json.Unmarshal(b, &m); err != nil {
			return nil, errors.NewTxnInvalidError("data is not an object", err)
		}

		return stateDataFromMap(m)
	}
}

func stateDataFromMap(m map[string]any) (*StateData, error) {
	rawInputs, ok := m["inputs"]
	if !ok {
		return nil, errors.NewTxnInvalidError("missing inputs")
	}

	rawOutputs, ok := m["outputs"]
	if !ok {
		return nil, errors.NewTxnInvalidError("missing outputs")
	}

	sd := &StateData{
		Ts:    m["ts"],
		Nonce: m["nonce"],
	}

	switch inputs := rawInputs.(type) {
	case []string:
		sd.Inputs = inputs
	case []any:
		sd.Inputs = make([]string, 0, len(inputs))

		for i, in := range inputs {
			s, ok := in.(string)
			if !ok {
				return nil, errors.NewTxnInvalidError("input %d is not a string", i)
			}

			sd.Inputs = append(sd.Inputs, s)
		}
	default:
		return nil, errors.NewTxnInvalidError("inputs is not an array")
	}

	switch outputs := rawOutputs.(type) {
	case []Output:
		sd.Outputs = outputs
	case []any:
		sd.Outputs = make([]Output, 0, len(outputs))

		for i, o := range outputs {
			var (
				out Output
				err error
			)

			switch v := o.(type) {
			case Output:
				out = v
			case []any:
				out, err = outputFromSlice(v)
			default:
				err = errors.NewTxnInvalidError("not a [uri, value] pair")
			}

			if err != nil {
				return nil, errors.NewTxnInvalidError("output %d is malformed", i, err)
			}

			sd.Outputs = append(sd.Outputs, out)
		}
	default:
		return nil, errors.NewTxnInvalidError("outputs is not an array")
	}

	if origin, ok := m["origin"].(string); ok {
		sd.Origin = origin
	}

	if sig, ok := m["sig"].(string); ok {
		sd.Sig = sig
	}

	return sd, nil
}

func outputFromSlice(raw []any) (Output, error) {
	if len(raw) != 2 {
		return Output{}, errors.NewTxnInvalidError("output must have 2 elements, got %d", len(raw))
	}

	uri, ok := raw[0].(string)
	if !ok || !strings.Contains(uri, "://") {
		return Output{}, errors.NewTxnInvalidError("output uri %v is not a uri", raw[0])
	}

	return Output{URI: uri, Value: raw[1]}, nil
}
