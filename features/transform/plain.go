package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"regcorpus/features/catalog"
	"regcorpus/internal/text"
)

var blankLineRe = regexp.MustCompile(`\n\s*\n`)

// TextParser emits one record per blank-line separated paragraph.
type TextParser struct{}

func (TextParser) Parse(_ context.Context, _ catalog.Source, raw []byte) ([]Record, error) {
	content := strings.ReplaceAll(string(raw), "\r\n", "\n")
	var records []Record
	for _, para := range blankLineRe.Split(content, -1) {
		para = text.Normalize(para)
		if para == "" {
			continue
		}
		records = append(records, Record{
			"text":       para,
			"section_id": fmt.Sprintf("p-%d", len(records)+1),
		})
	}
	return records, nil
}

// JSONParser passes through a JSON array of objects, or a single object.
type JSONParser struct{}

func (JSONParser) Parse(_ context.Context, _ catalog.Source, raw []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("parse json: empty payload")
	}

	if trimmed[0] == '{' {
		var obj Record
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		return []Record{obj}, nil
	}

	var arr []Record
	if err := json.Unmarshal(trimmed, &arr); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	out := arr[:0]
	for _, r := range arr {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}
