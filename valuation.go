package pricer

import "fmt"

// Gain is the unrealized gain of an open lot against a market price.
type Gain struct {
	Delta        Money   // Delta is the price change per share since purchase.
	DeltaPercent Percent // DeltaPercent is Delta relative to the cost basis.
	Value        Money   // Value is Delta for all the shares of the lot.
}

// Unrealized computes the gain of lot at price.
//
// A lot bought for nothing has no meaningful percentage: ErrZeroCostBasis is
// returned and the Gain only carries Delta and Value.
func Unrealized(lot OpenLot, price Money) (Gain, error) {
	delta := price.Sub(lot.Cost)
	g := Gain{
		Delta: delta,
		Value: delta.Mul(lot.Shares),
	}
	if lot.Cost.IsZero() {
		return g, fmt.Errorf("%w: cannot compute change of a lot bought at %s", ErrZeroCostBasis, lot.Cost)
	}
	g.DeltaPercent = percent(delta, lot.Cost)
	return g, nil
}

// Realized returns the profit or loss of a sale.
func Realized(lot ClosedLot) Money {
	return lot.SellPrice.Sub(lot.Cost).Mul(lot.Shares)
}

// CurrentValue returns the market value of lot at price.
func CurrentValue(lot OpenLot, price Money) Money {
	return price.Mul(lot.Shares)
}

// CostValue returns what was paid for lot.
func CostValue(lot OpenLot) Money {
	return lot.Cost.Mul(lot.Shares)
}

// percent returns part/whole as a percentage. whole must not be zero.
func percent(part, whole Money) Percent {
	return Percent(part.Ratio(whole).Shift(2).InexactFloat64())
}
