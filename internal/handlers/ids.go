package handlers

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// invalidIDError reports an id that is neither a number nor a numeric string.
type invalidIDError struct {
	raw string
}

func (e *invalidIDError) Error() string {
	return "invalid id " + e.raw
}

// idList decodes a list of ids leniently: a JSON array of numbers or
// numeric strings, a single number, or a comma-separated string.
type idList []int64

// UnmarshalJSON implements json.Unmarshaler.
func (l *idList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	var raw []json.RawMessage
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = []json.RawMessage{data}
	}

	var out idList
	for _, item := range raw {
		ids, err := parseIDs(item)
		if err != nil {
			return err
		}
		out = append(out, ids...)
	}
	*l = out
	return nil
}

func parseIDs(item json.RawMessage) ([]int64, error) {
	var n int64
	if err := json.Unmarshal(item, &n); err == nil {
		return []int64{n}, nil
	}
	var s string
	if err := json.Unmarshal(item, &s); err != nil {
		return nil, &invalidIDError{raw: string(item)}
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, &invalidIDError{raw: strconv.Quote(part)}
		}
		ids = append(ids, id)
	}
	return ids, nil
}
