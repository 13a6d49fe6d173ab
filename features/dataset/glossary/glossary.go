package glossary

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"regcorpus/features/dataset"
	"regcorpus/features/transform"
	"regcorpus/internal/text"
)

const (
	TaxName        = "tax_glossary"
	AccountingName = "accounting_glossary"

	task = "glossary_define"

	minSectionChars = 100
	maxSectionChars = 3000
	answerTokens    = 250
	saftTokens      = 200
)

const (
	taxPrompt        = "Du er en norsk regnskapsassistent med ekspertise innen skatt og merverdiavgift. Svar kort og presist med kildehenvisninger."
	accountingPrompt = "Du er en norsk regnskapsassistent med ekspertise innen regnskap og bokføring. Svar kort og presist med kildehenvisninger."
)

var (
	paragraphTermRe = regexp.MustCompile(`§\s*[\d-]+\.?\s*(.+)`)
	chapterTermRe   = regexp.MustCompile(`Kapittel\s+\d+\s+(.+)`)

	proceduralKeywords = []string{
		"søknad", "klage", "vedtak", "frist", "innlevering",
		"kontrollopplysninger", "straff", "overtredelse",
	}

	questionTemplates = []string{
		"Hva betyr '%s'?",
		"Forklar '%s'",
		"Hva er '%s'?",
	}
)

// Tax builds definition Q&A from law sections.
type Tax struct{}

func NewTax() *Tax { return &Tax{} }

func (*Tax) Name() string { return TaxName }

func (*Tax) FamilyKey(s dataset.Sample) string {
	if s.Metadata.FamilyKey == "" {
		return "unknown"
	}
	return s.Metadata.FamilyKey
}

func (t *Tax) GenerateSamples(records []transform.Record) ([]dataset.Sample, error) {
	var samples []dataset.Sample
	for _, r := range records {
		if s, ok := t.fromSection(r); ok {
			samples = append(samples, s)
		}
	}
	return samples, nil
}

func (t *Tax) fromSection(r transform.Record) (dataset.Sample, bool) {
	heading := r.String("heading")
	body := r.String("text_plain")
	if body == "" {
		body = r.String("text")
	}
	if body == "" || heading == "" {
		return dataset.Sample{}, false
	}

	n := utf8.RuneCountInString(body)
	if n < minSectionChars || n > maxSectionChars {
		return dataset.Sample{}, false
	}
	if IsProcedural(body) {
		return dataset.Sample{}, false
	}
	term := ExtractTerm(heading)
	if term == "" {
		return dataset.Sample{}, false
	}

	lawID := firstNonEmpty(r.String("law_id"), r.String("source_id"), "unknown")
	sectionID := firstNonEmpty(r.String("section_id"), "unknown")
	chapter := firstNonEmpty(r.String("chapter_no"), r.String("chapter"), "unknown")

	answer := withCitation(text.Truncate(body, answerTokens), taxCitation(r, heading))

	rng := dataset.KeyedRand(TaxName, lawID, sectionID, term)
	question := fmt.Sprintf(dataset.Pick(rng, questionTemplates), term)

	return dataset.Sample{
		Turns: dataset.Conversation(taxPrompt, question, answer),
		Metadata: dataset.Metadata{
			Domain:    "tax",
			Task:      task,
			SourceIDs: []string{lawID + "_" + sectionID},
			FamilyKey: lawID + "_chapter_" + chapter,
			Locale:    dataset.DefaultLocale,
		},
	}, true
}

// ExtractTerm pulls the defined term out of a section heading:
// "§ 1-1. Saklig virkeområde" and "Kapittel 3 Fradrag" yield the trailing
// words; other headings longer than ten characters are used as is.
func ExtractTerm(heading string) string {
	heading = strings.TrimSpace(heading)
	if m := paragraphTermRe.FindStringSubmatch(heading); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := chapterTermRe.FindStringSubmatch(heading); m != nil {
		return strings.TrimSpace(m[1])
	}
	if utf8.RuneCountInString(heading) > 10 && !strings.HasPrefix(heading, "§") {
		return heading
	}
	return ""
}

func IsProcedural(body string) bool {
	lower := strings.ToLower(body)
	for _, kw := range proceduralKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func taxCitation(r transform.Record, heading string) string {
	label := r.String("section_label")
	if label == "" {
		label = strings.SplitN(heading, ".", 2)[0]
	}
	title := firstNonEmpty(r.String("law_title"), r.String("title"))
	return strings.TrimSpace("[" + strings.TrimSpace(label+" "+title) + "]")
}

func withCitation(answer, citation string) string {
	if citation == "" || citation == "[]" || strings.HasSuffix(answer, citation) {
		return answer
	}
	return answer + " " + citation
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
