package gacha

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Item is a fully specified procedurally generated collectible.
// Items are immutable once generated.
type Item struct {
	UniqueID       string
	Name           string
	Description    string
	Rarity         Rarity
	Theme          Theme
	Power          int
	Luck           float64
	Magic          int
	SpecialEffects []string
}

// uniqueIDLen is the length of the hex item ID: 12 hex chars = 48 bits.
const uniqueIDLen = 12

// Base stat constants. Each stat is base × rarity multiplier × jitter.
const (
	basePower = 10
	baseLuck  = 5
	baseMagic = 8
)

// rarityMultipliers scales stats per tier; each tier's expected stat value
// strictly exceeds the previous tier's.
var rarityMultipliers = map[Rarity]float64{
	RarityCommon:    1.0,
	RarityUncommon:  1.5,
	RarityRare:      2.5,
	RarityEpic:      4.0,
	RarityLegendary: 7.0,
	RarityMythic:    12.0,
}

// specialEffects is the fixed effect tag pool for legendary and mythic items.
var specialEffects = []string{
	"✨ Светится",
	"💫 Пульсирует",
	"🌟 Искрится",
	"⚡ Энергия",
	"🔥 Пламя",
	"❄️ Лёд",
}

// Generator produces procedurally generated items. Safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	seq atomic.Uint64
}

// NewGenerator creates a Generator seeded from the current time.
func NewGenerator() *Generator {
	return NewSeededGenerator(time.Now().UnixNano())
}

// NewSeededGenerator creates a Generator with a fixed seed.
// Useful for reproducible tests; item IDs stay unique regardless of seed.
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// GenerateOptions controls a single generation. Zero values mean
// "roll it randomly".
type GenerateOptions struct {
	Theme   Theme  // empty: sample uniformly from the theme catalog
	Rarity  Rarity // empty: sample from the weight table selected by Premium
	Premium bool
}

// Generate builds one item. The theme defaults to a uniform pick over the
// catalog and the rarity to a weighted roll on the free or premium table.
func (g *Generator) Generate(opts GenerateOptions) Item {
	g.mu.Lock()
	defer g.mu.Unlock()

	theme := opts.Theme
	if theme == "" {
		theme = ThemeOrder[g.rnd.Intn(len(ThemeOrder))]
	}

	rarity := opts.Rarity
	if rarity == "" {
		rarity = g.pickRarityLocked(opts.Premium)
	}

	cfg := Themes[theme]
	name := cfg.Prefixes[g.rnd.Intn(len(cfg.Prefixes))] + " " + cfg.Suffixes[g.rnd.Intn(len(cfg.Suffixes))]
	description := cfg.Descriptions[g.rnd.Intn(len(cfg.Descriptions))]

	mult := rarityMultipliers[rarity]
	item := Item{
		UniqueID:    g.deriveIDLocked(theme, rarity),
		Name:        name,
		Description: description,
		Rarity:      rarity,
		Theme:       theme,
		Power:       int(g.jitterLocked() * mult * basePower),
		Luck:        math.Round(g.jitterLocked()*mult*baseLuck*10) / 10,
		Magic:       int(g.jitterLocked() * mult * baseMagic),
	}

	if rarity.AtLeast(RarityLegendary) {
		item.SpecialEffects = []string{specialEffects[g.rnd.Intn(len(specialEffects))]}
	}

	return item
}

// PickRarity rolls a rarity tier on the free or premium weight table.
func (g *Generator) PickRarity(premium bool) Rarity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pickRarityLocked(premium)
}

func (g *Generator) pickRarityLocked(premium bool) Rarity {
	if premium {
		return pickRarityFrom(g.rnd, PremiumWeights)
	}
	return pickRarityFrom(g.rnd, FreeWeights)
}

// jitterLocked returns a multiplicative stat variation in [0.8, 1.2].
func (g *Generator) jitterLocked() float64 {
	return 0.8 + g.rnd.Float64()*0.4
}

// deriveIDLocked builds a collision-resistant item ID. The seed combines a
// fresh UUID, a process-local counter and the item attributes through a
// one-way hash, so IDs cannot be precomputed from attributes alone.
func (g *Generator) deriveIDLocked(theme Theme, rarity Rarity) string {
	seed := fmt.Sprintf("%s_%d_%s_%s", uuid.NewString(), g.seq.Add(1), theme, rarity)
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])[:uniqueIDLen]
}
