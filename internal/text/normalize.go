package text

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf8"
)

// CharsPerToken approximates tokenizer output for Norwegian prose.
const CharsPerToken = 4

var (
	spaceRe = regexp.MustCompile(`\s+`)
	navRe   = []*regexp.Regexp{
		regexp.MustCompile(`🔗.*`),
		regexp.MustCompile(`(?i)Se også.*`),
		regexp.MustCompile(`(?i)Gå til.*`),
		regexp.MustCompile(`\[(Til toppen|Tilbake|Neste|Forrige)\]`),
		regexp.MustCompile(`[→←].*`),
	}
)

// Normalize collapses whitespace runs into single spaces and trims.
func Normalize(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// StripNavigation removes legal-portal navigation artifacts line by line.
func StripNavigation(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		for _, re := range navRe {
			line = re.ReplaceAllString(line, "")
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// Hash is the hex sha256 of the normalized text.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(Normalize(s)))
	return hex.EncodeToString(sum[:])
}

func WordCount(s string) int {
	return len(strings.Fields(s))
}

func EstimateTokens(s string) int {
	return utf8.RuneCountInString(s) / CharsPerToken
}

// Truncate shortens s to roughly maxTokens, cutting at the last full stop
// inside the limit when there is one.
func Truncate(s string, maxTokens int) string {
	maxChars := maxTokens * CharsPerToken
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	head := string(runes[:maxChars])
	if i := strings.LastIndex(head, "."); i > 0 {
		return head[:i] + "."
	}
	return head + "..."
}

// Metrics are the size measures attached to every structured record.
type Metrics struct {
	CharCount     int `json:"char_count"`
	WordCount     int `json:"word_count"`
	TokenEstimate int `json:"token_estimate"`
}

func Measure(s string) Metrics {
	return Metrics{
		CharCount:     utf8.RuneCountInString(s),
		WordCount:     WordCount(s),
		TokenEstimate: EstimateTokens(s),
	}
}
