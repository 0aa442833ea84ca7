package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// inClause returns "?,?,?" with one placeholder per id and the ids as
// query arguments.
func inClause(ids []int64) (string, []any) {
	if len(ids) == 0 {
		return "", nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.Repeat("?,", len(ids)-1) + "?", args
}

// encodeModifiers stores modifiers as a JSON array; no modifiers is "[]".
func encodeModifiers(mods []string) string {
	if len(mods) == 0 {
		return "[]"
	}
	b, err := json.Marshal(mods)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeModifiers(s string) ([]string, error) {
	if s == "" || s == "null" || s == "[]" {
		return nil, nil
	}
	var mods []string
	if err := json.Unmarshal([]byte(s), &mods); err != nil {
		return nil, fmt.Errorf("decode modifiers %q: %w", s, err)
	}
	return mods, nil
}
