package incentive

import (
	"slices"
	"strings"
)

// =============================================================================
// RULE MATCHER
// =============================================================================

// MatchesRule decides whether lead satisfies rule's criteria:
//
//  1. Normalized lead types must be equal.
//  2. A non-empty rule country is a comma-separated list; the lead's country
//     must normalize to one of its entries. Empty means any country.
//  3. Attendees rules with a minimum require lead.AttendeesCount >= minimum
//     (a missing count is 0).
//  4. Industry rules with a domain require the lead's normalized domain to be
//     non-empty and equal.
//
// Matching is insensitive to case and whitespace in every free-text field.
func (e Engine) MatchesRule(rule Rule, lead Lead) bool {
	ruleType := e.Normalizer.LeadType(rule.LeadType)
	if e.Normalizer.LeadType(lead.LeadType) != ruleType {
		return false
	}

	if countries := e.ruleCountries(rule); len(countries) > 0 {
		leadCountry := e.Normalizer.Country(lead.Country)
		if !slices.Contains(countries, leadCountry) {
			return false
		}
	}

	if isAttendees(ruleType) && rule.AttendeesMinCount != nil {
		attendees := 0
		if lead.AttendeesCount != nil {
			attendees = *lead.AttendeesCount
		}
		if attendees < *rule.AttendeesMinCount {
			return false
		}
	}

	if isIndustry(ruleType) {
		if domain := e.Normalizer.Industry(rule.IndustryDomain); domain != "" {
			leadDomain := e.Normalizer.Industry(lead.IndustryDomain)
			if leadDomain == "" || leadDomain != domain {
				return false
			}
		}
	}

	return true
}

// ruleCountries splits and normalizes the rule's country list, dropping
// entries that normalize to nothing.
func (e Engine) ruleCountries(rule Rule) []string {
	if strings.TrimSpace(rule.Country) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(rule.Country, ",") {
		if k := e.Normalizer.Country(part); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func isAttendees(leadTypeKey string) bool { return strings.Contains(leadTypeKey, "attend") }
func isIndustry(leadTypeKey string) bool  { return strings.Contains(leadTypeKey, "industry") }

