package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupe_FirstWins(t *testing.T) {
	a := sample("f1", "Hva er MVA?", "Merverdiavgift.")
	b := sample("f2", "Hva er MVA?", "Merverdiavgift.")
	c := sample("f1", "Hva er skatt?", "Skatt er skatt.")

	unique, removed := Dedupe([]Sample{a, b, c})
	assert.Equal(t, 1, removed)
	assert.Len(t, unique, 2)
	assert.Equal(t, "f1", unique[0].Metadata.FamilyKey)
}

func TestQualityGate(t *testing.T) {
	gate := QualityGate{MinChars: 10, MaxChars: 4000}
	valid := sample("f", "Hva betyr fradrag?", "Fradrag er et beløp som trekkes fra.")

	tests := []struct {
		name   string
		mutate func(s *Sample)
		want   bool
	}{
		{"valid", func(s *Sample) {}, true},
		{"single turn", func(s *Sample) { s.Turns = s.Turns[:1] }, false},
		{"no turns", func(s *Sample) { s.Turns = nil }, false},
		{"first role not system", func(s *Sample) { s.Turns[0].Role = RoleUser }, false},
		{"short content", func(s *Sample) { s.Turns[1].Content = "  kort   " }, false},
		{"empty content", func(s *Sample) { s.Turns[2].Content = "" }, false},
		{"too long", func(s *Sample) { s.Turns[2].Content = strings.Repeat("a", 4001) }, false},
		{"exactly max", func(s *Sample) { s.Turns[2].Content = strings.Repeat("a", 4000) }, true},
		{"no source ids", func(s *Sample) { s.Metadata.SourceIDs = nil }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			s.Turns = append([]Turn(nil), valid.Turns...)
			s.Metadata.SourceIDs = append([]string(nil), valid.Metadata.SourceIDs...)
			tt.mutate(&s)
			assert.Equal(t, tt.want, gate.Accept(s))
		})
	}
}

func TestQualityGate_ShortSamplesAlwaysRejected(t *testing.T) {
	gate := QualityGate{MinChars: 0, MaxChars: 1 << 20}
	for _, turns := range [][]Turn{
		nil,
		{{Role: RoleSystem, Content: strings.Repeat("x", 50)}},
	} {
		s := Sample{Turns: turns, Metadata: Metadata{SourceIDs: []string{"a"}}}
		assert.False(t, gate.Accept(s))
	}
}

func TestQualityGate_Filter(t *testing.T) {
	gate := QualityGate{MinChars: 10, MaxChars: 4000}
	good := sample("f", "Hva betyr fradrag?", "Fradrag er et beløp som trekkes fra.")
	bad := sample("f", "Hva?", "Kort.")

	kept, rejected := gate.Filter([]Sample{good, bad, good})
	assert.Len(t, kept, 2)
	assert.Equal(t, 1, rejected)
}

func TestSample_Check(t *testing.T) {
	s := sample("f", "Hva betyr fradrag?", "Fradrag er et beløp.")
	assert.NoError(t, s.Check())

	s.Turns[1].Role = "tool"
	assert.ErrorIs(t, s.Check(), ErrInvalidSample)
}
