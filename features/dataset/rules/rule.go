package rules

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"regcorpus/features/transform"
)

const (
	ActionSetAccount = "set_account"
	ActionSetVATRate = "set_vat_rate"
	ActionSetVATCode = "set_vat_code"
)

// Rule is a business rule mapping a transaction category to an account and VAT treatment.
type Rule struct {
	ID          string
	Name        string
	Description string
	Account     string
	VATRate     float64
	VATCode     string
	Citations   []string
	SourceIDs   []string
}

// FromRecord reads a rule out of a structured record. ok is false when the
// record is not an active rule with all three required actions.
func FromRecord(r transform.Record) (Rule, bool) {
	id := r.String("rule_id")
	if id == "" {
		return Rule{}, false
	}
	if active, set := r["is_active"].(bool); set && !active {
		return Rule{}, false
	}

	rule := Rule{
		ID:          id,
		Name:        r.String("rule_name"),
		Description: r.String("description"),
		Citations:   stringList(r["citations"]),
		SourceIDs:   stringList(r["source_ids"]),
	}
	if len(rule.SourceIDs) == 0 && r.String("source_id") != "" {
		rule.SourceIDs = []string{r.String("source_id")}
	}

	var haveAccount, haveRate, haveCode bool
	actions, _ := r["actions"].([]any)
	for _, a := range actions {
		m, ok := a.(map[string]any)
		if !ok {
			continue
		}
		action := transform.Record(m)
		switch action.String("type") {
		case ActionSetAccount:
			if !haveAccount {
				rule.Account = action.String("value")
				haveAccount = rule.Account != ""
			}
		case ActionSetVATRate:
			if !haveRate {
				rate, err := strconv.ParseFloat(action.String("value"), 64)
				if err == nil {
					rule.VATRate = rate
					haveRate = true
				}
			}
		case ActionSetVATCode:
			if !haveCode {
				rule.VATCode = action.String("value")
				haveCode = rule.VATCode != ""
			}
		}
	}
	if !(haveAccount && haveRate && haveCode) {
		return Rule{}, false
	}
	return rule, true
}

// Load extracts every usable rule from records, in order.
func Load(records []transform.Record) []Rule {
	var out []Rule
	for _, r := range records {
		if rule, ok := FromRecord(r); ok {
			out = append(out, rule)
		}
	}
	return out
}

// Family groups rules by the first two underscore-separated parts of the id.
func Family(ruleID string) string {
	parts := strings.Split(ruleID, "_")
	if len(parts) >= 2 {
		return parts[0] + "_" + parts[1]
	}
	return "unknown"
}

// SplitVAT breaks an amount including VAT into the net amount and the VAT,
// both rounded to øre.
func SplitVAT(amountInclVAT, ratePercent float64) (exVAT, vat float64) {
	ex := amountInclVAT / (1 + ratePercent/100)
	return round2(ex), round2(amountInclVAT - ex)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatNumber renders 25 as "25" and 11.11 as "11.11".
func FormatNumber(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

// Category classifies a rule id into one of the known expense categories.
func Category(ruleID string) string {
	id := strings.ToLower(ruleID)
	switch {
	case strings.Contains(id, "hotel"):
		return "hotel"
	case strings.Contains(id, "food"), strings.Contains(id, "meal"):
		return "food"
	case strings.Contains(id, "transport"), strings.Contains(id, "fuel"):
		return "transport"
	case strings.Contains(id, "equipment"), strings.Contains(id, "computer"):
		return "equipment"
	case strings.Contains(id, "office"):
		return "office"
	default:
		return ""
	}
}

func stringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			if s := fmt.Sprint(x); x != nil && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t != "" {
			return []string{t}
		}
	}
	return nil
}
