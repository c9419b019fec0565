// Package shop defines the star top-up catalog sold through Telegram
// payments.
package shop

// SKU is one purchasable star bundle. The price is in Telegram Stars (XTR);
// the Stars field is the in-game currency credited on confirmation.
type SKU struct {
	ID    string
	Label string
	Stars int64
	Price int
}

// SKU IDs.
const (
	SKUStars50  = "s50"
	SKUStars150 = "s150"
	SKUStars500 = "s500"
)

// skuOrder defines the catalog display order.
var skuOrder = []string{SKUStars50, SKUStars150, SKUStars500}

// Catalog is the fixed sku → bundle table. Defined at startup, never
// mutated.
var Catalog = map[string]SKU{
	SKUStars50: {
		ID:    SKUStars50,
		Label: "50 Stars",
		Stars: 50,
		Price: 25,
	},
	SKUStars150: {
		ID:    SKUStars150,
		Label: "150 Stars",
		Stars: 150,
		Price: 65,
	},
	SKUStars500: {
		ID:    SKUStars500,
		Label: "500 Stars",
		Stars: 500,
		Price: 200,
	},
}

// Get returns the SKU for the given ID.
func Get(id string) (SKU, bool) {
	sku, ok := Catalog[id]
	return sku, ok
}

// All returns the catalog in display order.
func All() []SKU {
	skus := make([]SKU, 0, len(skuOrder))
	for _, id := range skuOrder {
		skus = append(skus, Catalog[id])
	}
	return skus
}
