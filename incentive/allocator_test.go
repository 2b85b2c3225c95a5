package incentive_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/incentive-engine/incentive"
)

func bucket(matched int, tiers ...incentive.Rule) *incentive.Bucket {
	b := &incentive.Bucket{MatchedCount: matched}
	for _, r := range tiers {
		b.Tiers = append(b.Tiers, incentive.ResolvedRule{Rule: r})
	}
	return b
}

func TestAllocate_SingleTier(t *testing.T) {
	// GIVEN: One tier of 5 leads -> 1000
	// WHEN: 12 leads matched
	// THEN: Paid twice, 2 leads unspent

	got := incentive.Allocate(bucket(12, rule("r", "x", 5, 1000)))

	assert.True(t, got.AmountAwarded.Equal(amt(2000)))
	assert.Equal(t, incentive.AmountCounts{"1000": 2}, got.CountsByAmount)
	assert.Equal(t, 2, got.Remaining)
	assert.Len(t, got.Awards, 1)
	assert.Equal(t, 2, got.Awards[0].Times)
}

func TestAllocate_LargestTierFirst(t *testing.T) {
	// GIVEN: Tiers {10 -> 500} and {5 -> 200}
	// WHEN: 17 leads matched
	// THEN: 1x500 (7 left), 1x200 (2 left) = 700

	got := incentive.Allocate(bucket(17, rule("small", "x", 5, 200), rule("big", "x", 10, 500)))

	assert.True(t, got.AmountAwarded.Equal(amt(700)))
	assert.Equal(t, incentive.AmountCounts{"500": 1, "200": 1}, got.CountsByAmount)
	assert.Equal(t, 2, got.Remaining)
	if assert.Len(t, got.Awards, 2) {
		assert.Equal(t, "big", got.Awards[0].Rule.ID)
		assert.Equal(t, "small", got.Awards[1].Rule.ID)
	}
}

func TestAllocate_EqualThresholdHigherAmountFirst(t *testing.T) {
	got := incentive.Allocate(bucket(5, rule("low", "x", 5, 100), rule("high", "x", 5, 300)))

	assert.True(t, got.AmountAwarded.Equal(amt(300)))
	assert.Equal(t, 1, got.CountsByAmount.Count(amt(300)))
	assert.Equal(t, 0, got.CountsByAmount.Count(amt(100)))
}

func TestAllocate_SkipsDegenerateTiers(t *testing.T) {
	got := incentive.Allocate(bucket(10,
		rule("zero-required", "x", 0, 999),
		rule("negative-required", "x", -3, 999),
		rule("zero-amount", "x", 5, 0),
		rule("negative-amount", "x", 4, -50),
		rule("ok", "x", 2, 100),
	))

	assert.True(t, got.AmountAwarded.Equal(amt(500)))
	assert.Equal(t, incentive.AmountCounts{"100": 5}, got.CountsByAmount)
	assert.Equal(t, 0, got.Remaining)
}

func TestAllocate_EmptyBucket(t *testing.T) {
	got := incentive.Allocate(bucket(0, rule("r", "x", 5, 1000)))
	assert.True(t, got.AmountAwarded.IsZero())
	assert.Empty(t, got.CountsByAmount)

	got = incentive.Allocate(nil)
	assert.True(t, got.AmountAwarded.IsZero())
}

func TestAllocate_Deterministic(t *testing.T) {
	tiers := []incentive.Rule{
		rule("a", "x", 3, 100), rule("b", "x", 7, 400), rule("c", "x", 5, 250), rule("d", "x", 7, 350),
	}
	reversed := make([]incentive.Rule, len(tiers))
	for i, r := range tiers {
		reversed[len(tiers)-1-i] = r
	}

	for matched := 0; matched <= 40; matched++ {
		first := incentive.Allocate(bucket(matched, tiers...))
		again := incentive.Allocate(bucket(matched, tiers...))
		shuffled := incentive.Allocate(bucket(matched, reversed...))

		assert.True(t, first.AmountAwarded.Equal(again.AmountAwarded), "matched=%d", matched)
		assert.Equal(t, first.CountsByAmount, again.CountsByAmount, "matched=%d", matched)
		assert.True(t, first.AmountAwarded.Equal(shuffled.AmountAwarded), "matched=%d", matched)
		assert.Equal(t, first.CountsByAmount, shuffled.CountsByAmount, "matched=%d", matched)
	}
}

func TestAllocate_MonotonicInMatchedCount(t *testing.T) {
	tiers := []incentive.Rule{rule("big", "x", 10, 500), rule("small", "x", 5, 200)}

	prev := incentive.Allocate(bucket(0, tiers...)).AmountAwarded
	for matched := 1; matched <= 60; matched++ {
		cur := incentive.Allocate(bucket(matched, tiers...)).AmountAwarded
		assert.True(t, cur.GreaterThanOrEqual(prev), "matched=%d: %s < %s", matched, cur, prev)
		prev = cur
	}
}

func TestAllocate_GreedyIsThePolicy(t *testing.T) {
	// GIVEN: Tiers {10 -> 100} and {3 -> 60}
	// WHEN: 10 leads matched
	// THEN: Greedy takes the 10-tier once (100), even though 3x60 = 180
	//       would pay more

	tiers := []incentive.Rule{rule("ten", "x", 10, 100), rule("three", "x", 3, 60)}

	assert.True(t, incentive.Allocate(bucket(10, tiers...)).AmountAwarded.Equal(amt(100)))
	assert.True(t, incentive.Allocate(bucket(9, tiers...)).AmountAwarded.Equal(amt(180)))
}

func TestAllocate_DoesNotReorderBucket(t *testing.T) {
	b := bucket(20, rule("small", "x", 5, 200), rule("big", "x", 10, 500))
	incentive.Allocate(b)

	assert.Equal(t, "small", b.Tiers[0].ID)
	assert.Equal(t, "big", b.Tiers[1].ID)
}
