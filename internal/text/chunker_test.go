package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitProse_ShortTextIsSingleChunk(t *testing.T) {
	got := SplitProse("  Merverdiavgift skal beregnes ved omsetning.  ", 1000)
	assert.Equal(t, []string{"Merverdiavgift skal beregnes ved omsetning."}, got)
}

func TestSplitProse_RespectsLimit(t *testing.T) {
	para := strings.Repeat("Avgiftspliktig omsetning omfatter levering av varer. ", 10)
	input := para + "\n\n" + para + "\n\n" + para

	chunks := SplitProse(input, 600)
	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 600)
	}
	assert.Equal(t, strings.Fields(input), strings.Fields(strings.Join(chunks, " ")))
}

func TestSplitProse_FallsBackToWords(t *testing.T) {
	long := strings.Repeat("ord ", 100)
	chunks := SplitProse(long, 50)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 50)
	}
	assert.Equal(t, 100, WordCount(strings.Join(chunks, " ")))
}

func TestSplitProse_DropsNoise(t *testing.T) {
	assert.Empty(t, SplitProse("Til toppen", 100))
	assert.Empty(t, SplitProse("   ", 100))
}

func TestIsNoise(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"empty", "", true},
		{"nav label", "Forrige", true},
		{"link list", "- [A](#a)\n- [B](#b)\n- [C](#c)", true},
		{"short boilerplate", "© 2024 Lovdata. Alle rettigheter reservert.", true},
		{"legal text", "§ 3-1. Omsetning av varer og tjenester er avgiftspliktig.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNoise(tt.content))
		})
	}
}
