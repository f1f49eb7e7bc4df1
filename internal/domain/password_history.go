package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PasswordHistory is an ordered list of prior password hashes, oldest first.
// It is persisted as a JSON text column so the same model works on both
// postgres and sqlite.
type PasswordHistory []string

func (h PasswordHistory) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (h *PasswordHistory) Scan(src any) error {
	if src == nil {
		*h = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported password history source type %T", src)
	}
	if len(raw) == 0 {
		*h = nil
		return nil
	}
	return json.Unmarshal(raw, h)
}

// Append adds hash and trims the history to the newest limit entries.
func (h PasswordHistory) Append(hash string, limit int) PasswordHistory {
	out := append(h, hash)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
