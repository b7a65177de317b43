package model

import (
	"time"
)

// Record is a stored value together with its write time.
type Record struct {
	TS   time.Time `json:"ts"`
	Data any       `json:"data"`
}

// Item is a listed record.
type Item struct {
	URI string `json:"uri"`
	Record
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type ListResult struct {
	Data       []Item     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewRecord stamps data with the current time, truncated to milliseconds so it survives encoding.
func NewRecord(data any) *Record {
	return &Record{TS: time.Now().UTC().Truncate(time.Millisecond), Data: data}
}

type encodedRecord struct {
	TS   int64 `json:"ts"`
	Data any   `json:"data"`
}

// Encode serialises the record for byte oriented backends.
func (r *Record) Encode() ([]byte, error) {
	return json.Marshal(encodedRecord{TS: r.TS.UnixMilli(), Data: r.Data})
}

func DecodeRecord(b []byte) (*Record, error) {
	var e encodedRecord
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, err
	}

	return &Record{TS: time.UnixMilli(e.TS).UTC(), Data: e.Data}, nil
}
