package gacha

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRarityOrder(t *testing.T) {
	require.Len(t, RarityOrder, 6)
	assert.Equal(t, RarityCommon, RarityOrder[0])
	assert.Equal(t, RarityMythic, RarityOrder[5])

	// Indexes follow the canonical order
	for i, tier := range RarityOrder {
		assert.Equal(t, i, tier.Index())
		assert.True(t, tier.IsValid())
	}
	assert.Equal(t, -1, Rarity("plaid").Index())
	assert.False(t, Rarity("plaid").IsValid())
}

func TestRarityAtLeast(t *testing.T) {
	assert.True(t, RarityMythic.AtLeast(RarityEpic))
	assert.True(t, RarityEpic.AtLeast(RarityEpic))
	assert.False(t, RarityRare.AtLeast(RarityEpic))
	assert.True(t, RarityCommon.AtLeast(Rarity("plaid"))) // unknown sorts below everything
}

func TestPickRarityDistribution(t *testing.T) {
	const draws = 100000
	rnd := rand.New(rand.NewSource(42))

	counts := make(map[Rarity]int)
	for i := 0; i < draws; i++ {
		counts[pickRarityFrom(rnd, FreeWeights)]++
	}

	total := 0
	for _, w := range FreeWeights {
		total += w
	}

	// Each tier should land within 1 percentage point of its weight.
	for _, tier := range RarityOrder {
		expected := float64(FreeWeights[tier]) / float64(total)
		got := float64(counts[tier]) / float64(draws)
		assert.InDelta(t, expected, got, 0.01, "tier %s", tier)
	}
}

func TestPickRarityZeroWeightNeverDrawn(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))

	for i := 0; i < 10000; i++ {
		assert.NotEqual(t, RarityMythic, pickRarityFrom(rnd, FreeWeights))
		assert.NotEqual(t, RarityCommon, pickRarityFrom(rnd, PremiumWeights))
	}
}

func TestPickRarityEmptyTableFallsBack(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	assert.Equal(t, RarityCommon, pickRarityFrom(rnd, map[Rarity]int{}))
}

func TestPickRarityArbitraryTableProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		weights := make(map[Rarity]int, len(RarityOrder))
		total := 0
		for _, tier := range RarityOrder {
			w := rapid.IntRange(0, 1000).Draw(t, string(tier))
			weights[tier] = w
			total += w
		}
		seed := rapid.Int64().Draw(t, "seed")
		rnd := rand.New(rand.NewSource(seed))

		got := pickRarityFrom(rnd, weights)
		if !got.IsValid() {
			t.Fatalf("drew unknown rarity %q", got)
		}
		// Only the degenerate all-zero table may fall back to a
		// zero-weight tier.
		if total > 0 && weights[got] == 0 {
			t.Fatalf("drew zero-weight tier %s from %v", got, weights)
		}
	})
}
