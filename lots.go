package pricer

import (
	"slices"
	"sort"

	"github.com/etnz/pricer/date"
)

// OpenLot is a single purchase of shares that is still held.
type OpenLot struct {
	Shares Quantity  // Shares held, always positive.
	Cost   Money     // Cost basis per share.
	Until  string    // Until is a hold-until reminder; empty when the lot is free to sell.
	Opened date.Date // Opened is the acquisition date.
	Hidden bool      // Hidden lots are kept in storage but not displayed nor addressable.
}

// Held reports whether the lot carries a hold-until annotation.
func (l OpenLot) Held() bool { return l.Until != "" }

// close returns the closed record for selling shares of this lot.
func (l OpenLot) close(shares Quantity, sellPrice Money, on date.Date) ClosedLot {
	return ClosedLot{
		Shares:    shares,
		Cost:      l.Cost,
		Until:     l.Until,
		Opened:    l.Opened,
		SellPrice: sellPrice,
		Closed:    on,
	}
}

// ClosedLot is the record of shares sold out of a lot. It is never modified
// once appended to the ledger.
type ClosedLot struct {
	Shares    Quantity
	Cost      Money
	Until     string
	Opened    date.Date
	SellPrice Money
	Closed    date.Date
}

// LotRef locates an open lot.
type LotRef struct {
	Symbol string
	Index  int // Index is the user-facing position among visible lots.
	Slot   int // Slot is the position in storage, hidden lots included.
}

// symbolRecord holds all lots of one symbol.
//
// open is sorted by Cost ascending, lots with equal cost keep their insertion order.
type symbolRecord struct {
	open   []OpenLot
	closed []ClosedLot
}

// insert adds an open lot after every lot of lower or equal cost and returns its slot.
func (r *symbolRecord) insert(l OpenLot) int {
	i := sort.Search(len(r.open), func(i int) bool { return r.open[i].Cost.GreaterThan(l.Cost) })
	r.open = slices.Insert(r.open, i, l)
	return i
}

// remove deletes the open lot at slot.
func (r *symbolRecord) remove(slot int) {
	r.open = slices.Delete(r.open, slot, slot+1)
}

// visible returns the storage slots of the lots that are not hidden, in order.
func (r *symbolRecord) visible() []int {
	slots := make([]int, 0, len(r.open))
	for i, l := range r.open {
		if !l.Hidden {
			slots = append(slots, i)
		}
	}
	return slots
}

// slot maps a visible index to a storage slot.
func (r *symbolRecord) slot(index int) (int, bool) {
	slots := r.visible()
	if index < 0 || index >= len(slots) {
		return 0, false
	}
	return slots[index], true
}

// index maps a storage slot back to its visible index, -1 for hidden lots.
func (r *symbolRecord) index(slot int) int {
	if r.open[slot].Hidden {
		return -1
	}
	n := 0
	for i := 0; i < slot; i++ {
		if !r.open[i].Hidden {
			n++
		}
	}
	return n
}

// position returns the total open shares.
func (r *symbolRecord) position() Quantity {
	var total Quantity
	for _, l := range r.open {
		total = total.Add(l.Shares)
	}
	return total
}
