package text

import (
	"regexp"
	"strings"
)

var (
	linkOnlyRe    = regexp.MustCompile(`^\s*[-*]?\s*\[.*?\]\(.*?\)\s*$`)
	navLabelRe    = regexp.MustCompile(`(?i)^(til toppen|tilbake|neste|forrige|skriv ut|del paragraf|innhold)$`)
	boilerplateRe = regexp.MustCompile(`(?i)(©|alle rettigheter|all rights reserved|informasjonskapsler|personvernerklæring|cookies)`)
)

// IsNoise reports whether a chunk carries no usable content: empty text,
// bare navigation labels, link lists or short legal boilerplate.
func IsNoise(content string) bool {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return true
	}
	if navLabelRe.MatchString(trimmed) {
		return true
	}

	lines := nonEmptyLines(trimmed)
	if len(lines) > 2 {
		links := 0
		for _, line := range lines {
			if linkOnlyRe.MatchString(line) {
				links++
			}
		}
		if float64(links)/float64(len(lines)) > 0.7 {
			return true
		}
	}

	// Only short boilerplate; a full terms page may be intentional.
	if len(trimmed) < 200 && boilerplateRe.MatchString(trimmed) {
		return true
	}
	return false
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// SplitProse breaks text into pieces of at most maxChars, preferring
// paragraph boundaries, then lines, then words. Noise pieces are dropped.
func SplitProse(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxChars <= 0 || len(text) <= maxChars {
		if IsNoise(text) {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
	}
	add := func(piece, sep string) {
		if cur.Len() > 0 && cur.Len()+len(sep)+len(piece) > maxChars {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString(sep)
		}
		cur.WriteString(piece)
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= maxChars {
			add(para, "\n\n")
			continue
		}

		flush()
		for _, line := range strings.Split(para, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if len(line) <= maxChars {
				add(line, "\n")
				continue
			}
			flush()
			for _, word := range strings.Fields(line) {
				add(word, " ")
			}
		}
		flush()
	}
	flush()

	out := chunks[:0]
	for _, c := range chunks {
		if !IsNoise(c) {
			out = append(out, c)
		}
	}
	return out
}
