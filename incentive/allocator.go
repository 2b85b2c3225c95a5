package incentive

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIERED ALLOCATOR
// =============================================================================

// TierAward is one tier's share of a bucket allocation.
type TierAward struct {
	Rule   ResolvedRule
	Times  int
	Amount decimal.Decimal // Times * Rule.Amount
}

// Allocation is the payout of one bucket for one day.
type Allocation struct {
	AmountAwarded  decimal.Decimal
	CountsByAmount AmountCounts
	Remaining      int // matched leads left unspent
	Awards         []TierAward
}

// Allocate converts a bucket's matched count into payouts, largest tier
// first. Tiers are ordered by LeadsRequired desc, then Amount desc; each
// takes as many whole multiples of its threshold as remain. Degenerate
// tiers are skipped.
//
// Greedy is the payout policy. It is not always the maximum payout a
// different tier combination could reach, and must not be "improved".
func Allocate(b *Bucket) Allocation {
	out := Allocation{
		AmountAwarded:  decimal.Zero,
		CountsByAmount: make(AmountCounts),
	}
	if b == nil {
		return out
	}

	tiers := make([]ResolvedRule, len(b.Tiers))
	copy(tiers, b.Tiers)
	sort.SliceStable(tiers, func(i, j int) bool {
		if tiers[i].LeadsRequired != tiers[j].LeadsRequired {
			return tiers[i].LeadsRequired > tiers[j].LeadsRequired
		}
		return tiers[i].Amount.GreaterThan(tiers[j].Amount)
	})

	remaining := b.MatchedCount
	for _, tier := range tiers {
		if remaining <= 0 {
			break
		}
		if !tier.Eligible() {
			continue
		}
		times := remaining / tier.LeadsRequired
		if times == 0 {
			continue
		}
		paid := tier.Amount.Mul(decimal.NewFromInt(int64(times)))
		out.AmountAwarded = out.AmountAwarded.Add(paid)
		out.CountsByAmount.Add(tier.Amount, times)
		out.Awards = append(out.Awards, TierAward{Rule: tier, Times: times, Amount: paid})
		remaining -= times * tier.LeadsRequired
	}
	out.Remaining = remaining
	return out
}
