/*
Package normalize canonicalizes the free-text fields that incentive rules are
matched on.

PURPOSE:
  Lead records and incentive rules are typed in by different people at
  different times. "Attendees Lead", "attendees type" and "ATTENDEES" all
  mean the same category, and "U.S.A", "United States" and "us" all mean the
  same country. This package reduces each of those spellings to one key so
  the matcher can compare keys with ==.

KEY CONCEPTS:
  - LeadType: category key with the filler words lead/type removed
  - Country:  synonym-table lookup, token by token for compound inputs
  - Industry: case and whitespace folding only (exact match after folding)

DEGRADATION:
  No function here returns an error. Unknown inputs fall back to their
  cleaned form, so an unseen country still compares equal to itself.

SEE ALSO:
  - country.go: CountryTable and the default synonym entries
  - incentive/matcher.go: The only consumer of these keys
*/
package normalize

import (
	"regexp"
	"strings"
)

// fillerWords are dropped from lead types wherever they appear as whole words.
var fillerWords = regexp.MustCompile(`\b(leads?|types?)\b`)

// LeadType returns the comparison key for a lead-type string.
//
//	LeadType("Attendees Lead")  == "attendees"
//	LeadType("attendees  type") == "attendees"
//	LeadType("Industry Leads")  == "industry"
//
// LeadType is idempotent.
func LeadType(text string) string {
	s := collapse(strings.ToLower(text))
	s = fillerWords.ReplaceAllString(s, " ")
	return collapse(s)
}

// Industry returns the comparison key for an industry domain.
func Industry(text string) string {
	return collapse(strings.ToLower(text))
}

// collapse trims and folds every run of whitespace into a single space.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
