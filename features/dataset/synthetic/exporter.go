package synthetic

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"regcorpus/features/dataset"
	"regcorpus/features/dataset/rules"
	"regcorpus/features/transform"
)

const (
	Name = "synthetic_conversations"
	task = "conversation"

	DefaultConversationsPerTemplate = 250

	wrongAccount = "6300"
)

// Exporter generates multi-turn conversations by filling templates with rule data.
type Exporter struct {
	perTemplate int
}

func New(conversationsPerTemplate int) *Exporter {
	if conversationsPerTemplate <= 0 {
		conversationsPerTemplate = DefaultConversationsPerTemplate
	}
	return &Exporter{perTemplate: conversationsPerTemplate}
}

func (*Exporter) Name() string { return Name }

// FamilyKey is the template id, so one conversation pattern never spans splits.
func (*Exporter) FamilyKey(s dataset.Sample) string {
	if s.Metadata.ConversationType == "" {
		return "unknown"
	}
	return s.Metadata.ConversationType
}

func (e *Exporter) GenerateSamples(records []transform.Record) ([]dataset.Sample, error) {
	rs := rules.Load(records)
	if len(rs) == 0 {
		return nil, nil
	}

	var samples []dataset.Sample
	for _, tmpl := range Templates {
		for i := 0; i < e.perTemplate; i++ {
			if s, ok := e.fill(tmpl, rs, i); ok {
				samples = append(samples, s)
			}
		}
	}
	return samples, nil
}

// fill renders conversation i of tmpl. Rule choice cycles through the rule
// list by index; every other choice comes from a generator keyed on
// (template, rule, index).
func (e *Exporter) fill(tmpl Template, rs []rules.Rule, i int) (dataset.Sample, bool) {
	var primary, secondary rules.Rule
	if tmpl.Rules == 2 {
		if len(rs) < 2 {
			return dataset.Sample{}, false
		}
		half := len(rs) / 2
		primary = rs[i%half]
		secondary = rs[half+i%(len(rs)-half)]
	} else {
		primary = rs[i%len(rs)]
	}

	rng := dataset.KeyedRand(Name, tmpl.ID, primary.ID, secondary.ID, strconv.Itoa(i))
	values := ruleValues(rng, primary, "")
	values["context"] = dataset.Pick(rng, contextVariations)
	values["examples"] = "diverse forretningskostnader"
	values["wrong_account"] = wrongAccount
	values["correct_account"] = primary.Account
	values["example_amount"] = "1000"
	exampleNet, exampleVAT := rules.SplitVAT(1000, primary.VATRate)
	values["example_ex_vat"] = money(exampleNet)
	values["example_vat"] = money(exampleVAT)

	if tmpl.Rules == 2 {
		for k, v := range ruleValues(rng, primary, "1") {
			values[k] = v
		}
		for k, v := range ruleValues(rng, secondary, "2") {
			values[k] = v
		}
	}

	turns := []dataset.Turn{{Role: dataset.RoleSystem, Content: systemPrompt}}
	for _, ex := range tmpl.Turns {
		turns = append(turns,
			dataset.Turn{Role: dataset.RoleUser, Content: render(ex.User, values)},
			dataset.Turn{Role: dataset.RoleAssistant, Content: render(ex.Assistant, values)},
		)
	}

	sourceIDs := []string{primary.ID}
	ruleIDs := []string{primary.ID}
	if tmpl.Rules == 2 {
		sourceIDs = append(sourceIDs, secondary.ID)
		ruleIDs = append(ruleIDs, secondary.ID)
	}

	return dataset.Sample{
		Turns: turns,
		Metadata: dataset.Metadata{
			Domain:           "accounting",
			Task:             task,
			SourceIDs:        sourceIDs,
			FamilyKey:        tmpl.ID,
			Locale:           dataset.DefaultLocale,
			RuleIDs:          ruleIDs,
			ConversationType: tmpl.ID,
		},
	}, true
}

// ruleValues returns the placeholder values describing one rule. suffix
// distinguishes the lines of multi-item templates ("", "1", "2").
func ruleValues(rng *rand.Rand, r rules.Rule, suffix string) map[string]string {
	amount := dataset.Pick(rng, amounts)
	exVAT, vat := rules.SplitVAT(amount, r.VATRate)
	category, label := categoryFor(rng, r.ID)

	explanation := r.Description
	if explanation == "" {
		explanation = r.Name
	}

	return map[string]string{
		"category" + suffix:            category,
		"category" + suffix + "_label": label,
		"amount" + suffix:              rules.FormatNumber(amount),
		"amount" + suffix + "_ex_vat":  money(exVAT),
		"vat_amount" + suffix:          money(vat),
		"account" + suffix:             r.Account,
		"account" + suffix + "_label":  r.Name,
		"vat_code" + suffix:            r.VATCode,
		"vat_rate" + suffix:            rules.FormatNumber(r.VATRate),
		"explanation" + suffix:         explanation,
	}
}

func categoryFor(rng *rand.Rand, ruleID string) (string, string) {
	cat := rules.Category(ruleID)
	variants, ok := categoryVariations[cat]
	if !ok {
		return "kostnad", "diverse kostnad"
	}
	return dataset.Pick(rng, variants), categoryLabels[cat]
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// render substitutes {name} placeholders; unknown names are left as is.
func render(tmpl string, values map[string]string) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		end := strings.IndexByte(tmpl[open:], '}')
		if end < 0 {
			b.WriteString(tmpl)
			return b.String()
		}
		end += open
		b.WriteString(tmpl[:open])
		if v, ok := values[tmpl[open+1:end]]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(tmpl[open : end+1])
		}
		tmpl = tmpl[end+1:]
	}
}
