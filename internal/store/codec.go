package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"quaderno/internal/core"
)

// wireRecord is the persisted shape. timestamp and datetime are the keys
// written by the browser widget and are read as aliases.
type wireRecord struct {
	OccurredAt  string       `json:"occurredAt,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	DisplayTime string       `json:"displayTime,omitempty"`
	Datetime    string       `json:"datetime,omitempty"`
	Amount      *json.Number `json:"amount,omitempty"`
	Note        string       `json:"note"`
}

type outRecord struct {
	OccurredAt  string      `json:"occurredAt"`
	DisplayTime string      `json:"displayTime"`
	Amount      json.Number `json:"amount"`
	Note        string      `json:"note"`
}

// Codec converts between records and the persisted JSON array.
type Codec struct {
	Locale core.Locale
}

// Encode serializes records in order.
func (c Codec) Encode(records []core.Record) ([]byte, error) {
	out := make([]outRecord, 0, len(records))
	for _, r := range records {
		display := r.DisplayTime
		if display == "" {
			display = c.Locale.Display(r.OccurredAt)
		}
		out = append(out, outRecord{
			OccurredAt:  r.OccurredAt.UTC().Format(time.RFC3339Nano),
			DisplayTime: display,
			Amount:      json.Number(r.Amount.Decimal()),
			Note:        r.Note,
		})
	}
	return json.Marshal(out)
}

// Decode parses a persisted array. Elements that cannot be turned into a
// valid record are dropped and counted in skipped. A value that is not a
// JSON array at all yields core.ErrStorageReadCorrupt.
func (c Codec) Decode(data []byte) (records []core.Record, skipped int, err error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, 0, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", core.ErrStorageReadCorrupt, err)
	}
	records = make([]core.Record, 0, len(raw))
	for _, elem := range raw {
		r, ok := c.decodeOne(elem)
		if !ok {
			skipped++
			continue
		}
		records = append(records, r)
	}
	return records, skipped, nil
}

func (c Codec) decodeOne(elem json.RawMessage) (core.Record, bool) {
	var w wireRecord
	if err := json.Unmarshal(elem, &w); err != nil {
		return core.Record{}, false
	}
	stamp := w.OccurredAt
	if stamp == "" {
		stamp = w.Timestamp
	}
	occurred, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(stamp))
	if err != nil {
		return core.Record{}, false
	}
	if w.Amount == nil {
		return core.Record{}, false
	}
	amount, err := core.ParseMoney(w.Amount.String())
	if err != nil {
		return core.Record{}, false
	}
	r := core.Record{
		OccurredAt:  occurred.UTC(),
		DisplayTime: w.DisplayTime,
		Amount:      amount,
		Note:        w.Note,
	}
	if r.DisplayTime == "" {
		r.DisplayTime = w.Datetime
	}
	if r.DisplayTime == "" {
		r.DisplayTime = c.Locale.Display(r.OccurredAt)
	}
	if err := r.Validate(); err != nil {
		return core.Record{}, false
	}
	return r, true
}
