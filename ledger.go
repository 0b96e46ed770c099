package pricer

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/etnz/pricer/date"
	"github.com/rs/zerolog/log"
)

// Ledger holds every lot of every symbol, plus per-symbol notes and the set
// of symbols excluded from price queries.
//
// All mutating methods validate their arguments before touching the ledger:
// when they return an error the ledger is unchanged.
type Ledger struct {
	symbols  map[string]*symbolRecord
	notes    map[string]string
	excludes map[string]struct{}
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		symbols:  make(map[string]*symbolRecord),
		notes:    make(map[string]string),
		excludes: make(map[string]struct{}),
	}
}

// Symbol returns the canonical form of a symbol.
func Symbol(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// record returns the lots of an existing symbol.
func (l *Ledger) record(symbol string) (string, *symbolRecord, error) {
	sym := Symbol(symbol)
	rec, ok := l.symbols[sym]
	if !ok {
		return sym, nil, fmt.Errorf("%w: %q", ErrSymbolNotFound, sym)
	}
	return sym, rec, nil
}

// HasSymbol reports whether the ledger has ever recorded a lot for symbol.
func (l *Ledger) HasSymbol(symbol string) bool {
	_, ok := l.symbols[Symbol(symbol)]
	return ok
}

// Symbols iterates over the symbols of the ledger in alphabetical order.
func (l *Ledger) Symbols() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, sym := range slices.Sorted(maps.Keys(l.symbols)) {
			if !yield(sym) {
				return
			}
		}
	}
}

// OpenLots returns a copy of all open lots of symbol, hidden ones included, sorted by cost.
func (l *Ledger) OpenLots(symbol string) []OpenLot {
	rec, ok := l.symbols[Symbol(symbol)]
	if !ok {
		return nil
	}
	return slices.Clone(rec.open)
}

// VisibleLots returns a copy of the open lots of symbol that are not hidden,
// in index order.
func (l *Ledger) VisibleLots(symbol string) []OpenLot {
	rec, ok := l.symbols[Symbol(symbol)]
	if !ok {
		return nil
	}
	lots := make([]OpenLot, 0, len(rec.open))
	for _, slot := range rec.visible() {
		lots = append(lots, rec.open[slot])
	}
	return lots
}

// ClosedLots returns a copy of the closed lots of symbol in the order they were closed.
func (l *Ledger) ClosedLots(symbol string) []ClosedLot {
	rec, ok := l.symbols[Symbol(symbol)]
	if !ok {
		return nil
	}
	return slices.Clone(rec.closed)
}

// Position returns the total shares held for symbol.
func (l *Ledger) Position(symbol string) Quantity {
	rec, ok := l.symbols[Symbol(symbol)]
	if !ok {
		return Quantity{}
	}
	return rec.position()
}

// AddLot records a purchase of shares at cost per share.
//
// The symbol is created on its first purchase. The new lot is placed after
// all lots of lower or equal cost.
func (l *Ledger) AddLot(symbol string, shares Quantity, cost Money, until string, on date.Date) (LotRef, error) {
	sym := Symbol(symbol)
	if sym == "" {
		return LotRef{}, fmt.Errorf("%w: empty symbol", ErrSymbolNotFound)
	}
	if !shares.IsPositive() {
		return LotRef{}, fmt.Errorf("%w: cannot buy %s shares of %s", ErrInvalidShareAmount, shares, sym)
	}
	if cost.IsNegative() {
		return LotRef{}, fmt.Errorf("%w: negative cost %s", ErrInvalidPrice, cost)
	}
	if on.IsZero() {
		on = date.Today()
	}

	rec, ok := l.symbols[sym]
	if !ok {
		rec = &symbolRecord{}
		l.symbols[sym] = rec
	}
	slot := rec.insert(OpenLot{Shares: shares, Cost: cost, Until: until, Opened: on})
	ref := LotRef{Symbol: sym, Index: rec.index(slot), Slot: slot}
	log.Debug().Str("symbol", sym).Stringer("shares", shares).Stringer("cost", cost).Int("index", ref.Index).Msg("add lot")
	return ref, nil
}

// ResolveVisibleIndex maps a user-facing index, counting only lots that are
// not hidden, to the lot's storage slot.
func (l *Ledger) ResolveVisibleIndex(symbol string, index int) (LotRef, error) {
	sym, rec, err := l.record(symbol)
	if err != nil {
		return LotRef{}, err
	}
	slot, ok := rec.slot(index)
	if !ok {
		return LotRef{}, fmt.Errorf("%w: %s has no position %d (%d open)", ErrInvalidIndex, sym, index, len(rec.visible()))
	}
	return LotRef{Symbol: sym, Index: index, Slot: slot}, nil
}

// CloseLot sells every share of the lot at index.
func (l *Ledger) CloseLot(symbol string, index int, sellPrice Money, on date.Date) (ClosedLot, error) {
	if sellPrice.IsNegative() {
		return ClosedLot{}, fmt.Errorf("%w: negative sell price %s", ErrInvalidPrice, sellPrice)
	}
	ref, err := l.ResolveVisibleIndex(symbol, index)
	if err != nil {
		return ClosedLot{}, err
	}
	if on.IsZero() {
		on = date.Today()
	}
	rec := l.symbols[ref.Symbol]
	lot := rec.open[ref.Slot]
	closed := lot.close(lot.Shares, sellPrice, on)
	rec.remove(ref.Slot)
	rec.closed = append(rec.closed, closed)
	log.Debug().Str("symbol", ref.Symbol).Int("index", index).Stringer("shares", closed.Shares).Stringer("price", sellPrice).Msg("close lot")
	return closed, nil
}

// ReduceShares sells delta shares of the lot at index at sellPrice.
//
// The sold shares are recorded as one closed lot. The remaining shares keep
// their cost and hold annotation. Selling exactly the shares held closes the
// lot; selling more fails.
func (l *Ledger) ReduceShares(symbol string, index int, delta Quantity, sellPrice Money, on date.Date) (ClosedLot, error) {
	if !delta.IsPositive() {
		return ClosedLot{}, fmt.Errorf("%w: cannot sell %s shares", ErrInvalidShareAmount, delta)
	}
	if sellPrice.IsNegative() {
		return ClosedLot{}, fmt.Errorf("%w: negative sell price %s", ErrInvalidPrice, sellPrice)
	}
	ref, err := l.ResolveVisibleIndex(symbol, index)
	if err != nil {
		return ClosedLot{}, err
	}
	rec := l.symbols[ref.Symbol]
	lot := rec.open[ref.Slot]
	switch {
	case delta.GreaterThan(lot.Shares):
		return ClosedLot{}, fmt.Errorf("%w: cannot sell %s shares of %s position %d, only %s held", ErrInvalidShareAmount, delta, ref.Symbol, index, lot.Shares)
	case delta.Equal(lot.Shares):
		return l.CloseLot(symbol, index, sellPrice, on)
	}

	if on.IsZero() {
		on = date.Today()
	}
	closed := lot.close(delta, sellPrice, on)
	rec.open[ref.Slot].Shares = lot.Shares.Sub(delta)
	rec.closed = append(rec.closed, closed)
	log.Debug().Str("symbol", ref.Symbol).Int("index", index).Stringer("shares", delta).Stringer("price", sellPrice).Msg("reduce lot")
	return closed, nil
}

// IncreaseShares adds delta shares to the lot at index, at the same cost.
func (l *Ledger) IncreaseShares(symbol string, index int, delta Quantity) (LotRef, error) {
	if !delta.IsPositive() {
		return LotRef{}, fmt.Errorf("%w: cannot add %s shares", ErrInvalidShareAmount, delta)
	}
	ref, err := l.ResolveVisibleIndex(symbol, index)
	if err != nil {
		return LotRef{}, err
	}
	lot := &l.symbols[ref.Symbol].open[ref.Slot]
	lot.Shares = lot.Shares.Add(delta)
	log.Debug().Str("symbol", ref.Symbol).Int("index", index).Stringer("shares", delta).Msg("increase lot")
	return ref, nil
}

// SetHoldUntil sets the hold-until annotation of the lot at index.
// An empty note removes it.
func (l *Ledger) SetHoldUntil(symbol string, index int, note string) (LotRef, error) {
	ref, err := l.ResolveVisibleIndex(symbol, index)
	if err != nil {
		return LotRef{}, err
	}
	l.symbols[ref.Symbol].open[ref.Slot].Until = note
	return ref, nil
}

// ClearAllHolds removes every hold-until annotation from open lots and
// returns how many were removed.
func (l *Ledger) ClearAllHolds() int {
	n := 0
	for _, rec := range l.symbols {
		for i := range rec.open {
			if rec.open[i].Held() {
				rec.open[i].Until = ""
				n++
			}
		}
	}
	return n
}

// Hide marks the lot at index as hidden. Hidden lots stay in storage, count
// in the position, but are no longer displayed nor addressable.
func (l *Ledger) Hide(symbol string, index int) (LotRef, error) {
	ref, err := l.ResolveVisibleIndex(symbol, index)
	if err != nil {
		return LotRef{}, err
	}
	l.symbols[ref.Symbol].open[ref.Slot].Hidden = true
	return ref, nil
}

// UnhideAll makes every hidden lot of symbol visible again and returns how many were.
func (l *Ledger) UnhideAll(symbol string) (int, error) {
	_, rec, err := l.record(symbol)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range rec.open {
		if rec.open[i].Hidden {
			rec.open[i].Hidden = false
			n++
		}
	}
	return n, nil
}

// Note returns the note attached to symbol.
func (l *Ledger) Note(symbol string) string { return l.notes[Symbol(symbol)] }

// SetNote attaches a free text note to symbol, an empty text removes it.
// Notes can be attached to symbols that have no lots.
func (l *Ledger) SetNote(symbol, text string) {
	sym := Symbol(symbol)
	if text == "" {
		delete(l.notes, sym)
		return
	}
	l.notes[sym] = text
}

// Notes iterates over symbols with a note, in alphabetical order.
func (l *Ledger) Notes() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, sym := range slices.Sorted(maps.Keys(l.notes)) {
			if !yield(sym, l.notes[sym]) {
				return
			}
		}
	}
}

// Exclude skips symbol from price queries.
func (l *Ledger) Exclude(symbol string) { l.excludes[Symbol(symbol)] = struct{}{} }

// Include reverts Exclude.
func (l *Ledger) Include(symbol string) { delete(l.excludes, Symbol(symbol)) }

// Excluded reports whether symbol is skipped from price queries.
func (l *Ledger) Excluded(symbol string) bool {
	_, ok := l.excludes[Symbol(symbol)]
	return ok
}

// Excludes returns the excluded symbols, sorted.
func (l *Ledger) Excludes() []string {
	return slices.Sorted(maps.Keys(l.excludes))
}
