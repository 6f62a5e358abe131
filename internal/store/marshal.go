package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// marshalTypes stores type strings as a JSON array. HTML escaping is off so
// vector and packed struct spellings stay readable in the database.
func marshalTypes(types []string) (string, error) {
	if types == nil {
		types = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(types); err != nil {
		return "", fmt.Errorf("marshal types: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// unmarshalTypes parses a stored types column. Empty input is no types.
func unmarshalTypes(data string) ([]string, error) {
	types := []string{}
	if data == "" {
		return types, nil
	}
	if err := json.Unmarshal([]byte(data), &types); err != nil {
		return nil, fmt.Errorf("unmarshal types: %w", err)
	}
	return types, nil
}
