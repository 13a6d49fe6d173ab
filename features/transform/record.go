package transform

import (
	"encoding/json"
	"fmt"
)

// Record is one structured item produced by a parser. Parsers choose the
// fields; the stage adds source classification, hash and metrics.
type Record map[string]any

// String returns the field as a string, formatting non-string scalars.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

// Text is the content used for hashing and metrics: the "text" field when
// present, otherwise the canonical JSON encoding of the record.
func (r Record) Text() string {
	if s := r.String("text"); s != "" {
		return s
	}
	b, err := json.Marshal(map[string]any(r))
	if err != nil {
		return ""
	}
	return string(b)
}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
