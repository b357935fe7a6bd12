package kv

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// GetJSON decodes the record stored under key into v.
//
// v should already hold defaults: fields missing from the stored object keep
// their current values. found is false when the key is absent, in which case
// v is untouched. A decode error leaves v in an unspecified state; callers
// reset to defaults.
func GetJSON(s Store, key string, v any) (found bool, err error) {
	raw, ok, err := s.Get(key)
	if err != nil {
		return false, err
	}
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, fmt.Errorf("kv: decode %s: %w", key, err)
	}
	return true, nil
}

// PutJSON encodes v and stores it under key.
func PutJSON(s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", key, err)
	}
	return s.Set(key, string(b))
}
