package dataset

import (
	"fmt"
	"sort"

	"regcorpus/features/transform"
)

const testPrompt = "Du er en hjelpsom assistent for regnskap."

func sample(family, question, answer string) Sample {
	return Sample{
		Turns: Conversation(testPrompt, question, answer),
		Metadata: Metadata{
			Domain:    "test",
			Task:      "qa",
			SourceIDs: []string{family + "-src"},
			FamilyKey: family,
			Locale:    DefaultLocale,
		},
	}
}

// recordDomain emits one sample per record, keyed on the record's "family" field.
type recordDomain struct {
	name string
}

func (d recordDomain) Name() string { return d.name }

func (d recordDomain) FamilyKey(s Sample) string { return s.Metadata.FamilyKey }

func (d recordDomain) GenerateSamples(records []transform.Record) ([]Sample, error) {
	var out []Sample
	for _, r := range records {
		out = append(out, sample(
			r.String("family"),
			fmt.Sprintf("Hva gjelder for familie %s?", r.String("family")),
			r.String("text"),
		))
	}
	return out, nil
}

func familyRecords(families map[string]int) []transform.Record {
	var out []transform.Record
	for _, f := range sortedKeys(families) {
		for i := 0; i < families[f]; i++ {
			out = append(out, transform.Record{
				"family": f,
				"text":   fmt.Sprintf("Svar %d for familie %s med nok tekst.", i, f),
			})
		}
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
