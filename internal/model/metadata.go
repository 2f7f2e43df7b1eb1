package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is the opaque provider side-record attached to a payment:
// checkout handles, raw webhook payloads, timestamps, refund reasons.
// It is stored as a JSON column and only ever mutated through Merge,
// applied by the repository inside the same transaction as the status
// update that guards it.
type Metadata map[string]interface{}

// Merge returns a new Metadata with every key of m preserved and the
// patch applied on top. Neither input is modified.
func (m Metadata) Merge(patch Metadata) Metadata {
	merged := make(Metadata, len(m)+len(patch))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}

// Value implements driver.Valuer for the JSON column.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for the JSON column.
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata column type %T", value)
	}
	if len(raw) == 0 {
		*m = Metadata{}
		return nil
	}
	return json.Unmarshal(raw, m)
}
