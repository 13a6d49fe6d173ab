package rules

import (
	"fmt"
	"strings"

	"regcorpus/features/dataset"
	"regcorpus/features/transform"
)

const (
	Name = "rule_application"
	task = "posting_proposal"

	DefaultVariationsPerRule = 15

	systemPrompt = "Du er Konto AI, en regnskapsassistent for norske bedrifter. " +
		"Du hjelper med å kontere transaksjoner korrekt med riktig konto, " +
		"MVA-kode og beregning av merverdiavgift."
)

var amounts = []float64{500, 750, 1000, 1200, 1500, 1800, 2000, 2500, 3000, 3500, 4000, 5000, 7500, 10000, 15000}

// descriptions holds user phrasings per category; %s is the formatted amount.
var descriptions = map[string][]string{
	"hotel": {
		"Hotellovernatting %s kr",
		"Hotel - forretningsreise",
		"Overnatting",
		"hotell",
		"Radisson Blu Oslo - 2 netter",
		"Hotell med frokost inkludert",
	},
	"food": {
		"Måltid %s kr",
		"Lunsj med kunde",
		"Mat og drikke",
		"restaurant",
		"Middag forretningsreise",
		"Lunch på forretningsreise",
	},
	"office": {
		"Kontorrekvisita %s kr",
		"Kontormateriale",
		"Skrivesaker",
		"kontorrekvisita",
		"Printer papir og blekkpatron",
		"Diverse kontorrekvisita",
	},
	"transport": {
		"Transport %s kr",
		"Drivstoff",
		"Bensin",
		"Parkering Oslo",
		"Bompenger",
		"Transport til kunde",
	},
	"equipment": {
		"Utstyr %s kr",
		"PC-utstyr",
		"Datamaskin",
		"utstyr",
		"Mus og tastatur",
		"Kontorpult",
	},
}

// Exporter produces posting proposals from business rules.
type Exporter struct {
	variations int
}

func New(variationsPerRule int) *Exporter {
	if variationsPerRule <= 0 {
		variationsPerRule = DefaultVariationsPerRule
	}
	return &Exporter{variations: variationsPerRule}
}

func (*Exporter) Name() string { return Name }

func (*Exporter) FamilyKey(s dataset.Sample) string {
	if len(s.Metadata.RuleIDs) == 0 {
		return "unknown"
	}
	return Family(s.Metadata.RuleIDs[0])
}

func (e *Exporter) GenerateSamples(records []transform.Record) ([]dataset.Sample, error) {
	var samples []dataset.Sample
	for _, rule := range Load(records) {
		samples = append(samples, e.forRule(rule)...)
	}
	return samples, nil
}

func (e *Exporter) forRule(rule Rule) []dataset.Sample {
	rng := dataset.KeyedRand(Name, rule.ID)
	order := rng.Perm(len(amounts))

	n := min(e.variations, len(amounts))
	phrasings := descriptionsFor(rule)
	citation := "Regel: " + rule.Name
	if len(rule.Citations) > 0 {
		citation = rule.Citations[0]
	}

	out := make([]dataset.Sample, 0, n)
	for i := 0; i < n; i++ {
		amount := amounts[order[i]]
		user := phrasings[i%len(phrasings)]
		if strings.Contains(user, "%s") {
			user = fmt.Sprintf(user, FormatNumber(amount))
		}
		out = append(out, dataset.Sample{
			Turns: dataset.Conversation(systemPrompt, user, PostingProposal(rule, amount, citation)),
			Metadata: dataset.Metadata{
				Domain:    "accounting",
				Task:      task,
				SourceIDs: rule.SourceIDs,
				FamilyKey: Family(rule.ID),
				Locale:    dataset.DefaultLocale,
				RuleIDs:   []string{rule.ID},
			},
		})
	}
	return out
}

// descriptionsFor falls back to office phrasings for uncategorised rules.
func descriptionsFor(rule Rule) []string {
	if d, ok := descriptions[Category(rule.ID)]; ok {
		return d
	}
	return descriptions["office"]
}

// PostingProposal renders the assistant answer for one transaction.
func PostingProposal(rule Rule, amountInclVAT float64, citation string) string {
	exVAT, vat := SplitVAT(amountInclVAT, rule.VATRate)
	if citation == "" {
		citation = "Regel: " + rule.ID
	}
	return fmt.Sprintf("Kontering:\n"+
		"- Konto: %s (%s)\n"+
		"- MVA-kode: %s\n"+
		"- MVA-sats: %s%%\n"+
		"- Beløp eksl. MVA: %.2f kr\n"+
		"- MVA-beløp: %.2f kr\n"+
		"- Totalt: %.2f kr\n\n[%s]",
		rule.Account, rule.Name, rule.VATCode, FormatNumber(rule.VATRate), exVAT, vat, amountInclVAT, citation)
}
