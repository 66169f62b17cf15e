package quote

import "github.com/shopspring/decimal"

// Tier is a volume discount step. A line qualifies when its quantity is
// at least MinMultiple times the product's minimum order quantity.
type Tier struct {
	MinMultiple int64 `json:"min_multiple"`
	Percent     int   `json:"discount_pct"`
}

// tiers are ordered from the highest multiple down.
var tiers = []Tier{
	{MinMultiple: 10, Percent: 15},
	{MinMultiple: 5, Percent: 10},
	{MinMultiple: 2, Percent: 5},
}

var hundred = decimal.NewFromInt(100)

// Tiers returns the discount schedule, highest multiple first.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// DiscountFor returns the discount percentage for qty units of a product
// with the given minimum order quantity. Thresholds are inclusive.
func DiscountFor(qty, minOrderQty int64) int {
	if qty <= 0 || minOrderQty <= 0 {
		return 0
	}
	// floor(qty/moq) >= m is equivalent to qty >= m*moq and cannot overflow.
	multiple := qty / minOrderQty
	for _, t := range tiers {
		if multiple >= t.MinMultiple {
			return t.Percent
		}
	}
	return 0
}

// discountedPrice returns price reduced by pct percent, unrounded.
func discountedPrice(price decimal.Decimal, pct int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(100 - pct))).Div(hundred)
}

// lineTotal computes qty x price x (100-pct)/100 rounded half-up to cents.
func lineTotal(qty int64, price decimal.Decimal, pct int) decimal.Decimal {
	return discountedPrice(price, pct).Mul(decimal.NewFromInt(qty)).Round(2)
}
