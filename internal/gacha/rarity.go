// Package gacha implements the procedural item generator and pull engine.
package gacha

import "math/rand"

// Rarity classifies items from common to mythic. The tiers are ordered:
// drop weights, stat scaling and guarantee thresholds all follow this order.
type Rarity string

// Rarity tiers, lowest to highest.
const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityMythic    Rarity = "mythic"
)

// RarityOrder is the canonical tier order. Weighted sampling walks this slice,
// so tie-breaking is defined by it and never by map iteration.
var RarityOrder = []Rarity{
	RarityCommon,
	RarityUncommon,
	RarityRare,
	RarityEpic,
	RarityLegendary,
	RarityMythic,
}

// RarityEmoji maps each tier to its display icon.
var RarityEmoji = map[Rarity]string{
	RarityCommon:    "⚪",
	RarityUncommon:  "🟢",
	RarityRare:      "🔵",
	RarityEpic:      "🟣",
	RarityLegendary: "🟡",
	RarityMythic:    "💎",
}

// RarityNames maps each tier to its display name.
var RarityNames = map[Rarity]string{
	RarityCommon:    "Обычный",
	RarityUncommon:  "Необычный",
	RarityRare:      "Редкий",
	RarityEpic:      "Эпический",
	RarityLegendary: "Легендарный",
	RarityMythic:    "Мифический",
}

// FreeWeights is the drop table for free pulls. Mythic is unreachable
// without premium currency.
var FreeWeights = map[Rarity]int{
	RarityCommon:    50,
	RarityUncommon:  30,
	RarityRare:      15,
	RarityEpic:      4,
	RarityLegendary: 1,
	RarityMythic:    0,
}

// PremiumWeights is the drop table for premium pulls. Common never drops.
var PremiumWeights = map[Rarity]int{
	RarityCommon:    0,
	RarityUncommon:  20,
	RarityRare:      40,
	RarityEpic:      30,
	RarityLegendary: 9,
	RarityMythic:    1,
}

// Index returns the tier's position in the canonical order,
// or -1 for an unknown rarity.
func (r Rarity) Index() int {
	for i, tier := range RarityOrder {
		if tier == r {
			return i
		}
	}
	return -1
}

// AtLeast reports whether r is the given tier or higher.
func (r Rarity) AtLeast(other Rarity) bool {
	return r.Index() >= other.Index()
}

// IsValid reports whether r is one of the known tiers.
func (r Rarity) IsValid() bool {
	return r.Index() >= 0
}

// pickRarityFrom samples a tier from the given weight table using the
// provided random source. A roll in [1, total] is matched against the
// cumulative weights walked in canonical order. If the table is
// misconfigured and the cumulative sum never reaches the roll, the lowest
// tier is returned rather than failing the pull.
func pickRarityFrom(rnd *rand.Rand, weights map[Rarity]int) Rarity {
	total := 0
	for _, tier := range RarityOrder {
		total += weights[tier]
	}
	if total <= 0 {
		return RarityCommon
	}

	roll := rnd.Intn(total) + 1
	cumulative := 0
	for _, tier := range RarityOrder {
		cumulative += weights[tier]
		if roll <= cumulative {
			return tier
		}
	}
	return RarityCommon
}
