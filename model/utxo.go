package model

import (
	"strings"
)

// UTXORecord is a value that can be consumed exactly once.
type UTXORecord struct {
	Value     any    `json:"value"`
	Owner     string `json:"owner"`
	CreatedBy string `json:"createdBy,omitempty"`
	Spent     bool   `json:"spent"`
	SpentBy   string `json:"spentBy,omitempty"`
}

// ParseUTXORecord accepts a record or its decoded JSON object form. Data written with
// metadata (an object holding the record under "value" next to other keys) is unwrapped.
func ParseUTXORecord(data any) (*UTXORecord, bool) {
	switch d := data.(type) {
	case *UTXORecord:
		return d, d != nil
	case UTXORecord:
		return &d, true
	case map[string]any:
		if _, hasOwner := d["owner"]; !hasOwner {
			if inner, ok := d["value"]; ok {
				return ParseUTXORecord(inner)
			}

			return nil, false
		}

		b, err := json.Marshal(d)
		if err != nil {
			return nil, false
		}

		rec := &UTXORecord{}
		if err = json.Unmarshal(b, rec); err != nil {
			return nil, false
		}

		return rec, true
	default:
		return nil, false
	}
}

// OwnerFromURI returns the first path segment after the scheme, "alice" for utxo://alice/1.
func OwnerFromURI(uri string) string {
	_, rest, found := strings.Cut(uri, "://")
	if !found {
		return ""
	}

	owner, _, _ := strings.Cut(rest, "/")

	return owner
}
