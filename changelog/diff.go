package changelog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/c360studio/chronicler/storage"
)

// Diff compares two JSON object snapshots key by key over the union of their
// top-level keys. Keys present only in current are recorded as added, keys
// present only in previous as removed, and keys whose serialized values
// differ as from/to pairs. Keys with identical serialization are omitted.
// Either snapshot may be empty.
func Diff(previous, current json.RawMessage) (map[string]storage.FieldChange, error) {
	prev, err := decodeObject(previous, "previous")
	if err != nil {
		return nil, err
	}
	curr, err := decodeObject(current, "current")
	if err != nil {
		return nil, err
	}

	diff := make(map[string]storage.FieldChange)
	for _, key := range unionKeys(prev, curr) {
		before, hadBefore := prev[key]
		after, hasAfter := curr[key]
		switch {
		case !hadBefore:
			diff[key] = storage.FieldChange{Added: decodeValue(after)}
		case !hasAfter:
			diff[key] = storage.FieldChange{Removed: decodeValue(before)}
		case !bytes.Equal(before, after):
			diff[key] = storage.FieldChange{From: decodeValue(before), To: decodeValue(after)}
		}
	}

	if len(diff) == 0 {
		return nil, nil
	}
	return diff, nil
}

func decodeObject(raw json.RawMessage, side string) (map[string]json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decode %s snapshot: %w", side, err)
	}
	return obj, nil
}

func unionKeys(a, b map[string]json.RawMessage) []string {
	seen := make(map[string]bool, len(a)+len(b))
	keys := make([]string, 0, len(a)+len(b))
	for key := range a {
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	for key := range b {
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// decodeValue turns a raw fragment into a plain value so the diff marshals
// without double encoding.
func decodeValue(raw json.RawMessage) any {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}
