package gacha

// CurrencyKind names the currency a pack is charged in. A pack costs
// exactly one currency, never a split.
type CurrencyKind string

// Currencies.
const (
	CurrencyGold  CurrencyKind = "gold"
	CurrencyStars CurrencyKind = "stars"
)

// Pack is a static pull bundle definition: cost, pull count and optional
// guarantee and bonus rules. Packs are defined at startup and never mutated.
type Pack struct {
	ID        string
	Name      string
	Cost      int64
	Currency  CurrencyKind
	PullCount int
	Premium   bool

	// GuaranteeRarity, when set, forces at least one item at or above the
	// guarantee threshold; see ExecutePull.
	GuaranteeRarity Rarity

	// BonusPullCount appends extra premium pulls on top of PullCount.
	BonusPullCount int

	// Free marks the daily free pull, limited by the player's allowance
	// rather than a currency cost.
	Free bool
}

// Pack IDs.
const (
	PackSingleFree    = "single_free"
	PackSinglePremium = "single_premium"
	Pack10            = "pack_10"
	Pack50            = "pack_50"
	Pack100           = "pack_100"
)

// packOrder defines the catalog display order.
var packOrder = []string{
	PackSingleFree,
	PackSinglePremium,
	Pack10,
	Pack50,
	Pack100,
}

// packCatalog is the static pack catalog.
var packCatalog = map[string]Pack{
	PackSingleFree: {
		ID:        PackSingleFree,
		Name:      "🪙 Одиночный (бесплатно)",
		Cost:      0,
		Currency:  CurrencyGold,
		PullCount: 1,
		Premium:   false,
		Free:      true,
	},
	PackSinglePremium: {
		ID:        PackSinglePremium,
		Name:      "💎 Одиночный премиум",
		Cost:      5,
		Currency:  CurrencyStars,
		PullCount: 1,
		Premium:   true,
	},
	Pack10: {
		ID:              Pack10,
		Name:            "📦 Пак 10 тягов",
		Cost:            40,
		Currency:        CurrencyStars,
		PullCount:       10,
		Premium:         true,
		GuaranteeRarity: RarityEpic,
	},
	Pack50: {
		ID:              Pack50,
		Name:            "📦 Пак 50 тягов",
		Cost:            180,
		Currency:        CurrencyStars,
		PullCount:       50,
		Premium:         true,
		GuaranteeRarity: RarityLegendary,
		BonusPullCount:  5,
	},
	Pack100: {
		ID:              Pack100,
		Name:            "📦 Мега-пак 100 тягов",
		Cost:            350,
		Currency:        CurrencyStars,
		PullCount:       100,
		Premium:         true,
		GuaranteeRarity: RarityMythic,
		BonusPullCount:  15,
	},
}

// GetPack returns the pack config for the given ID.
func GetPack(id string) (Pack, bool) {
	p, ok := packCatalog[id]
	return p, ok
}

// AllPacks returns the pack catalog in display order.
func AllPacks() []Pack {
	packs := make([]Pack, 0, len(packOrder))
	for _, id := range packOrder {
		packs = append(packs, packCatalog[id])
	}
	return packs
}

// TotalPulls returns the number of items a pull of this pack yields.
func (p Pack) TotalPulls() int {
	return p.PullCount + p.BonusPullCount
}
