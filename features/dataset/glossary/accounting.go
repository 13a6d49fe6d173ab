package glossary

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"regcorpus/features/dataset"
	"regcorpus/features/transform"
	"regcorpus/internal/text"
)

// Accounting builds definition Q&A from chart-of-accounts entries and
// SAF-T nodes.
type Accounting struct{}

func NewAccounting() *Accounting { return &Accounting{} }

func (*Accounting) Name() string { return AccountingName }

func (*Accounting) FamilyKey(s dataset.Sample) string {
	if s.Metadata.FamilyKey == "" {
		return "unknown"
	}
	return s.Metadata.FamilyKey
}

func (a *Accounting) GenerateSamples(records []transform.Record) ([]dataset.Sample, error) {
	var samples []dataset.Sample
	for _, r := range records {
		var (
			s  dataset.Sample
			ok bool
		)
		switch {
		case r.String("account_id") != "":
			s, ok = fromAccount(r)
		case r.String("node_id") != "":
			s, ok = fromSAFTNode(r)
		}
		if ok {
			samples = append(samples, s)
		}
	}
	return samples, nil
}

func fromAccount(r transform.Record) (dataset.Sample, bool) {
	id := r.String("account_id")
	label := r.String("account_label")
	if label == "" {
		return dataset.Sample{}, false
	}

	answer := r.String("description")
	if examples := stringList(r["examples"]); len(examples) > 0 {
		if len(examples) > 3 {
			examples = examples[:3]
		}
		answer = strings.TrimSpace(answer + " Eksempler: " + strings.Join(examples, ", "))
	}
	answer = withCitation(answer, fmt.Sprintf("[NS 4102 konto %s]", id))

	return dataset.Sample{
		Turns: dataset.Conversation(accountingPrompt, fmt.Sprintf("Hva er konto %s?", id), answer),
		Metadata: dataset.Metadata{
			Domain:    "accounting",
			Task:      task,
			SourceIDs: []string{"chart_of_accounts_" + id},
			FamilyKey: "account_class_" + firstNonEmpty(r.String("account_class"), "unknown"),
			Locale:    dataset.DefaultLocale,
		},
	}, true
}

func fromSAFTNode(r transform.Record) (dataset.Sample, bool) {
	label := r.String("node_label")
	desc := r.String("description")
	if label == "" || utf8.RuneCountInString(desc) < 20 {
		return dataset.Sample{}, false
	}

	citation := fmt.Sprintf("[SAF-T %s %s]", firstNonEmpty(r.String("version"), "1.3"), r.String("node_path"))
	if r.String("node_path") == "" {
		citation = "[SAF-T spesifikasjon]"
	}
	answer := withCitation(text.Truncate(desc, saftTokens), citation)

	return dataset.Sample{
		Turns: dataset.Conversation(accountingPrompt, fmt.Sprintf("Hva er '%s' i SAF-T?", label), answer),
		Metadata: dataset.Metadata{
			Domain:    "accounting",
			Task:      task,
			SourceIDs: []string{"saft_" + r.String("node_id")},
			FamilyKey: "saft_level_" + firstNonEmpty(r.String("node_level"), "0"),
			Locale:    dataset.DefaultLocale,
		},
	}, true
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			if s, ok := x.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
