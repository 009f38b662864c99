package remote

import (
	"encoding/json"
	"fmt"
)

// The server's list results are duck-typed: older methods return a bare
// JSON array, newer ones wrap it in an object with pagination fields and a
// method-specific item key. decodeList accepts both and normalizes the
// pagination metadata at this boundary so nothing above it has to care.

// rawResult defers result decoding until the shape has been sniffed.
type rawResult = json.RawMessage

type pageMeta struct {
	Total      int
	NextCursor string
	HasMore    bool
}

func decodeList(raw json.RawMessage, out any, itemKeys ...string) (pageMeta, error) {
	if len(raw) == 0 {
		return pageMeta{}, nil
	}
	if raw[0] == '[' {
		return pageMeta{}, json.Unmarshal(raw, out)
	}

	var obj struct {
		Total      int    `json:"total"`
		TotalCount int    `json:"totalCount"`
		NextCursor string `json:"nextCursor"`
		HasMore    bool   `json:"hasMore"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return pageMeta{}, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return pageMeta{}, err
	}

	keys := append([]string{"items"}, itemKeys...)
	for _, key := range keys {
		items, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(items, out); err != nil {
			return pageMeta{}, err
		}
		meta := pageMeta{Total: obj.Total, NextCursor: obj.NextCursor, HasMore: obj.HasMore}
		if meta.Total == 0 {
			meta.Total = obj.TotalCount
		}
		return meta, nil
	}
	return pageMeta{}, fmt.Errorf("list result has none of the expected keys %v", keys)
}
