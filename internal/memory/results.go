package memory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Results decodes the list payloads of mem0-compatible memory services.
// Depending on the server version a list endpoint answers with a bare array
// or with an object wrapping the array under "results"; both decode into the
// same Items slice so nothing downstream sees the difference.
type Results struct {
	Items []ResultItem
}

// ResultItem is one decoded entry. Entries that are not objects, or objects
// without a "memory" field, keep their JSON text as Memory.
type ResultItem struct {
	ID        string
	Memory    string
	UserID    string
	Score     float64
	CreatedAt time.Time
	Metadata  map[string]string
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Results) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	r.Items = nil
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raws []json.RawMessage
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &raws); err != nil {
			return fmt.Errorf("memory: decode result list: %w", err)
		}
	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return fmt.Errorf("memory: decode result object: %w", err)
		}
		inner, ok := wrapper["results"]
		if !ok {
			// A lone object is treated as a single result.
			raws = []json.RawMessage{data}
			break
		}
		return r.UnmarshalJSON(inner)
	default:
		raws = []json.RawMessage{data}
	}

	r.Items = make([]ResultItem, 0, len(raws))
	for _, raw := range raws {
		r.Items = append(r.Items, decodeItem(raw))
	}
	return nil
}

// Facts converts the decoded items into facts, in payload order.
func (r Results) Facts() []Fact {
	facts := make([]Fact, len(r.Items))
	for i, it := range r.Items {
		facts[i] = Fact{
			ID:        it.ID,
			UserID:    it.UserID,
			Content:   it.Memory,
			Metadata:  it.Metadata,
			CreatedAt: it.CreatedAt,
			Score:     it.Score,
		}
	}
	return facts
}

func decodeItem(raw json.RawMessage) ResultItem {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return ResultItem{Memory: stringify(raw)}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ResultItem{Memory: stringify(raw)}
	}

	it := ResultItem{
		ID:     scalarString(fields["id"]),
		UserID: scalarString(fields["user_id"]),
	}
	if mem, ok := fields["memory"]; ok {
		it.Memory = stringify(mem)
	} else {
		it.Memory = stringify(raw)
	}
	if score, ok := fields["score"]; ok {
		_ = json.Unmarshal(score, &it.Score)
	}
	if created := scalarString(fields["created_at"]); created != "" {
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			it.CreatedAt = ts
		}
	}
	if meta, ok := fields["metadata"]; ok {
		var m map[string]json.RawMessage
		if json.Unmarshal(meta, &m) == nil && len(m) > 0 {
			it.Metadata = make(map[string]string, len(m))
			for k, v := range m {
				it.Metadata[k] = stringify(v)
			}
		}
	}
	return it
}

// scalarString returns strings unquoted and numbers in their literal form.
// Anything else yields "".
func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if _, err := strconv.ParseFloat(string(raw), 64); err == nil {
			return string(raw)
		}
	}
	return ""
}

// stringify renders a JSON value as display text: strings lose their
// quotes, everything else is compacted JSON.
func stringify(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
