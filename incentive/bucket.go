package incentive

import (
	"strconv"
	"strings"
)

// =============================================================================
// BUCKETS - Rules sharing one matching signature, for one agent-day
// =============================================================================

// Signature identifies the criteria a group of tier rules share.
type Signature struct {
	LeadType  string // normalized lead type
	Countries string // normalized country list joined by ","; "" = any
	Industry  string // normalized industry domain
}

func (s Signature) String() string {
	return s.LeadType + "|" + s.Countries + "|" + s.Industry
}

// Bucket holds the surviving tier rules of one signature and the number of
// the day's leads that matched at least one of them.
type Bucket struct {
	Signature    Signature
	Tiers        []ResolvedRule
	MatchedCount int

	tierIndex map[string]int // tier key -> index into Tiers
}

func (e Engine) signature(r Rule) Signature {
	return Signature{
		LeadType:  e.Normalizer.LeadType(r.LeadType),
		Countries: strings.Join(e.ruleCountries(r), ","),
		Industry:  e.Normalizer.Industry(r.IndustryDomain),
	}
}

// tierKey groups rules of a bucket by threshold.
func tierKey(r Rule) string {
	return strconv.Itoa(r.LeadsRequired)
}

// offer adds r as a tier, replacing an existing rule at the same threshold
// only when r's plan supersedes it. Two rules of one plan never supersede
// each other, so the one listed first keeps the tier.
func (b *Bucket) offer(r ResolvedRule) {
	k := tierKey(r.Rule)
	if i, ok := b.tierIndex[k]; ok {
		if r.supersedes(b.Tiers[i]) {
			b.Tiers[i] = r
		}
		return
	}
	b.tierIndex[k] = len(b.Tiers)
	b.Tiers = append(b.Tiers, r)
}

func (e Engine) matchesAny(b *Bucket, lead Lead) bool {
	for _, tier := range b.Tiers {
		if e.MatchesRule(tier.Rule, lead) {
			return true
		}
	}
	return false
}

// BuildBuckets groups the rules valid on one day into buckets and counts the
// day's matching leads per bucket.
//
// All leads must share one day key; the first lead's date picks the plans.
// Only active rules take part. A non-empty leadTypeFilter drops rules of any
// other lead type. Within a bucket at most one rule survives per
// LeadsRequired value: the one whose plan started latest. Each lead counts
// at most once per bucket, but may count in several buckets.
func (e Engine) BuildBuckets(plans []Plan, dayLeads []Lead, leadTypeFilter string) []*Bucket {
	if len(dayLeads) == 0 {
		return nil
	}
	day, ok := e.Calendar.Key(dayLeads[0].Date)
	if !ok {
		return nil
	}

	filter := e.Normalizer.LeadType(leadTypeFilter)
	index := make(map[Signature]*Bucket)
	var buckets []*Bucket

	for _, plan := range e.plansForKey(plans, day) {
		for _, rule := range plan.Rules {
			if !rule.IsActive {
				continue
			}
			if filter != "" && e.Normalizer.LeadType(rule.LeadType) != filter {
				continue
			}
			sig := e.signature(rule)
			b, ok := index[sig]
			if !ok {
				b = &Bucket{Signature: sig, tierIndex: make(map[string]int)}
				index[sig] = b
				buckets = append(buckets, b)
			}
			b.offer(resolve(plan, rule))
		}
	}

	for _, lead := range dayLeads {
		for _, b := range buckets {
			if e.matchesAny(b, lead) {
				b.MatchedCount++
			}
		}
	}
	return buckets
}
