package gacha

// guaranteeThreshold is the tier that satisfies any pack guarantee: a pack
// with a guarantee only triggers the replacement when no generated item
// reached epic or above, regardless of the guarantee's own tier.
const guaranteeThreshold = RarityEpic

// ExecutePull runs all pulls of a pack and returns the items in generation
// order. The call is pure generation: it touches no player state, so the
// caller must deduct the pack cost before accepting the result and persist
// the items afterwards.
//
// Rules, in order:
//  1. Exactly pack.PullCount items are generated on the pack's track.
//  2. If the pack carries a guarantee and none of the generated items
//     reached the guarantee threshold, the LAST item is replaced by a fresh
//     premium item forced to the guarantee rarity. Replacement keeps the
//     pull count invariant.
//  3. Bonus pulls are appended as normal premium rolls; the guarantee is
//     not re-checked against them.
func (g *Generator) ExecutePull(pack Pack) []Item {
	items := make([]Item, 0, pack.TotalPulls())
	for i := 0; i < pack.PullCount; i++ {
		items = append(items, g.Generate(GenerateOptions{Premium: pack.Premium}))
	}

	if pack.GuaranteeRarity != "" && !anyAtLeast(items, guaranteeThreshold) {
		items[len(items)-1] = g.Generate(GenerateOptions{
			Rarity:  pack.GuaranteeRarity,
			Premium: true,
		})
	}

	for i := 0; i < pack.BonusPullCount; i++ {
		items = append(items, g.Generate(GenerateOptions{Premium: true}))
	}

	return items
}

func anyAtLeast(items []Item, tier Rarity) bool {
	for _, item := range items {
		if item.Rarity.AtLeast(tier) {
			return true
		}
	}
	return false
}
