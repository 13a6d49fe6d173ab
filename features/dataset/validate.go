package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Issue struct {
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", i.File, i.Line, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.File, i.Message)
}

type ValidationReport struct {
	Files   int     `json:"files"`
	Samples int     `json:"samples"`
	Issues  []Issue `json:"issues"`
}

func (r ValidationReport) OK() bool {
	return len(r.Issues) == 0
}

const maxLineBytes = 16 * 1024 * 1024

// Validate checks every JSONL file under dir/train and dir/val: each line must
// decode into a well-formed sample tagged with its directory's split, and no
// dataset may have a family in both splits.
func Validate(dir string) (ValidationReport, error) {
	var report ValidationReport
	// dataset name -> split -> family keys
	families := make(map[string]map[string]map[string]struct{})

	for _, split := range []string{SplitTrain, SplitVal} {
		files, err := filepath.Glob(filepath.Join(dir, split, "*.jsonl"))
		if err != nil {
			return report, err
		}
		for _, path := range files {
			name := strings.TrimSuffix(filepath.Base(path), ".jsonl")
			if families[name] == nil {
				families[name] = map[string]map[string]struct{}{
					SplitTrain: {},
					SplitVal:   {},
				}
			}
			if err := validateFile(path, split, families[name][split], &report); err != nil {
				return report, err
			}
			report.Files++
		}
	}

	names := make([]string, 0, len(families))
	for n := range families {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		var leaked []string
		for k := range families[n][SplitTrain] {
			if _, ok := families[n][SplitVal][k]; ok {
				leaked = append(leaked, k)
			}
		}
		sort.Strings(leaked)
		for _, k := range leaked {
			report.Issues = append(report.Issues, Issue{
				File:    n,
				Message: fmt.Sprintf("family %q appears in both train and val", k),
			})
		}
	}
	return report, nil
}

func validateFile(path, split string, keys map[string]struct{}, report *ValidationReport) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		report.Samples++

		var s Sample
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			report.Issues = append(report.Issues, Issue{File: path, Line: line, Message: "invalid json: " + err.Error()})
			continue
		}
		if err := s.Check(); err != nil {
			report.Issues = append(report.Issues, Issue{File: path, Line: line, Message: err.Error()})
		}
		if s.Metadata.Split != split {
			report.Issues = append(report.Issues, Issue{File: path, Line: line, Message: fmt.Sprintf("split is %q, file is in %s", s.Metadata.Split, split)})
		}
		if s.Metadata.FamilyKey == "" {
			report.Issues = append(report.Issues, Issue{File: path, Line: line, Message: "missing family_key"})
			continue
		}
		keys[s.Metadata.FamilyKey] = struct{}{}
	}
	return sc.Err()
}
