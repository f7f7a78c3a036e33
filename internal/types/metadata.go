package types

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Metadata is a free-form key value store attached to ledger entries,
// invoices and subscriptions. Stored as jsonb.
type Metadata map[string]string

// Merge returns a copy of m with the entries of other applied on top.
// Existing keys not present in other are preserved.
func (m Metadata) Merge(other Metadata) Metadata {
	merged := make(Metadata, len(m)+len(other))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}

// Value implements driver.Valuer for jsonb columns.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for jsonb columns.
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("metadata: unsupported scan type")
	}
	return json.Unmarshal(b, m)
}
