package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Dedupe drops samples whose turns are identical to an earlier sample.
func Dedupe(samples []Sample) (unique []Sample, removed int) {
	seen := make(map[string]struct{}, len(samples))
	for _, s := range samples {
		h := turnsHash(s.Turns)
		if _, dup := seen[h]; dup {
			removed++
			continue
		}
		seen[h] = struct{}{}
		unique = append(unique, s)
	}
	return unique, removed
}

func turnsHash(turns []Turn) string {
	b, _ := json.Marshal(turns)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// QualityGate rejects samples that are too short, too long, or unsourced.
type QualityGate struct {
	MinChars int
	MaxChars int
}

func (g QualityGate) Accept(s Sample) bool {
	if len(s.Turns) < 2 || s.Turns[0].Role != RoleSystem {
		return false
	}
	if len(s.Metadata.SourceIDs) == 0 {
		return false
	}
	for _, t := range s.Turns {
		trimmed := strings.TrimSpace(t.Content)
		if trimmed == "" || utf8.RuneCountInString(trimmed) < g.MinChars {
			return false
		}
		if utf8.RuneCountInString(t.Content) > g.MaxChars {
			return false
		}
	}
	return true
}

func (g QualityGate) Filter(samples []Sample) (kept []Sample, rejected int) {
	for _, s := range samples {
		if g.Accept(s) {
			kept = append(kept, s)
			continue
		}
		rejected++
	}
	return kept, rejected
}
