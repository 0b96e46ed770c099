package pricer

import (
	"errors"
	"fmt"
	"slices"

	"github.com/etnz/pricer/date"
	"github.com/rs/zerolog/log"
)

// Position is the weighted average of a set of lots.
type Position struct {
	Shares  Quantity
	AvgCost Money
	Lots    int
}

// Add folds a lot of shares bought at cost into the position.
func (p Position) Add(shares Quantity, cost Money) Position {
	if p.Lots == 0 {
		return Position{Shares: shares, AvgCost: cost, Lots: 1}
	}
	total := p.Shares.Add(shares)
	// (shares*cost + S*avg) / (S+shares)
	avg := cost.Mul(shares).Add(p.AvgCost.Mul(p.Shares)).Div(total)
	return Position{Shares: total, AvgCost: avg, Lots: p.Lots + 1}
}

// CostValue is the total cost of the position.
func (p Position) CostValue() Money { return p.AvgCost.Mul(p.Shares) }

// Fold returns the weighted average position of lots, in their order.
func Fold(lots []OpenLot) Position {
	var p Position
	for _, l := range lots {
		p = p.Add(l.Shares, l.Cost)
	}
	return p
}

// LineItem is one displayed row of a report: a lot, or the total of a symbol.
type LineItem struct {
	Symbol        string
	Cost          Money   // Cost is the lot cost, or the average cost for a total.
	ChangePercent Percent // ChangePercent is the price change relative to Cost.
	Shares        Quantity
	Value         Money  // Value is the unrealized gain when priced, the cost value otherwise.
	Hold          string // Hold is the hold-until reminder, if any.
}

// totals accumulates figures across lots and symbols.
type totals struct {
	cost   Money
	market Money
	gain   Money
}

func (t totals) add(u totals) totals {
	return totals{
		cost:   t.cost.Add(u.cost),
		market: t.market.Add(u.market),
		gain:   t.gain.Add(u.gain),
	}
}

// OpenSymbol is the open position of a symbol in an OpenReport.
type OpenSymbol struct {
	Symbol   string
	Note     string
	Quote    Quote
	Priced   bool // Priced is false when no quote was available.
	Excluded bool
	Lots     []LineItem
	Position Position
	Total    LineItem

	CostValue   Money
	MarketValue Money
	Gain        Money
}

// OpenReport lists open lots with their unrealized gains.
type OpenReport struct {
	Symbols []OpenSymbol
	Skipped []string // Skipped lists requested symbols absent from the ledger.

	CostValue   Money
	MarketValue Money
	Gain        Money
}

// Priced reports whether at least one symbol of the report was quoted.
func (r *OpenReport) Priced() bool {
	for _, s := range r.Symbols {
		if s.Priced {
			return true
		}
	}
	return false
}

// NewOpenReport values the visible open lots of symbols, or of every symbol
// holding some when none is given.
//
// Excluded symbols are not quoted and, like symbols without a quote, only
// report their cost. quoter may be nil.
func NewOpenReport(l *Ledger, quoter Quoter, symbols ...string) (*OpenReport, error) {
	report := &OpenReport{}
	var grand totals
	for _, sym := range requested(l, symbols, &report.Skipped) {
		lots := l.VisibleLots(sym)
		if len(lots) == 0 {
			continue
		}
		s := OpenSymbol{Symbol: sym, Note: l.Note(sym), Excluded: l.Excluded(sym)}
		if quoter != nil && !s.Excluded {
			q, err := quoter.Quote(sym)
			switch {
			case err == nil:
				s.Quote, s.Priced = q, true
			case errors.Is(err, ErrNoQuote):
				log.Warn().Str("symbol", sym).Msg("no quote, reporting cost only")
			default:
				return nil, fmt.Errorf("cannot quote %s: %w", sym, err)
			}
		}
		sum := s.fill(lots)
		s.CostValue, s.MarketValue, s.Gain = sum.cost, sum.market, sum.gain
		grand = grand.add(sum)
		report.Symbols = append(report.Symbols, s)
	}
	report.CostValue, report.MarketValue, report.Gain = grand.cost, grand.market, grand.gain
	return report, nil
}

// fill computes line items of lots and the symbol total.
func (s *OpenSymbol) fill(lots []OpenLot) totals {
	var t totals
	price := s.Quote.Price
	for _, lot := range lots {
		item := LineItem{Symbol: s.Symbol, Cost: lot.Cost, Shares: lot.Shares, Hold: lot.Until}
		t.cost = t.cost.Add(CostValue(lot))
		if s.Priced {
			// a zero cost basis leaves ChangePercent at zero
			g, _ := Unrealized(lot, price)
			item.ChangePercent = g.DeltaPercent
			item.Value = g.Value
			t.market = t.market.Add(CurrentValue(lot, price))
			t.gain = t.gain.Add(g.Value)
		} else {
			item.Value = CostValue(lot)
		}
		s.Lots = append(s.Lots, item)
	}

	s.Position = Fold(lots)
	s.Total = LineItem{Symbol: s.Symbol, Cost: s.Position.AvgCost, Shares: s.Position.Shares, Value: t.cost}
	if s.Priced {
		s.Total.Value = t.gain
		if !s.Position.AvgCost.IsZero() {
			s.Total.ChangePercent = percent(price.Sub(s.Position.AvgCost), s.Position.AvgCost)
		}
	}
	return t
}

// ClosedFilter selects closed lots for a ClosedReport.
type ClosedFilter struct {
	Symbols []string  // Symbols to report, all when empty.
	On      date.Date // On selects lots closed that day, today when zero.
	All     bool      // All ignores On.
	Limit   int       // Limit is the maximum rows displayed per symbol, no limit when <= 0.
}

// ClosedRow is a displayed sale.
type ClosedRow struct {
	ClosedLot
	PL Money
}

// ClosedSymbol is the realized gain of a symbol in a ClosedReport.
type ClosedSymbol struct {
	Symbol string
	Rows   []ClosedRow // Rows are the most recent sales, at most Limit.
	Count  int         // Count is the number of matching sales, displayed or not.
	Shares Quantity
	Total  Money
}

// ClosedReport lists realized gains.
type ClosedReport struct {
	Filter  ClosedFilter
	Symbols []ClosedSymbol
	Skipped []string // Skipped lists requested symbols absent from the ledger.
	Total   Money
}

// NewClosedReport reports the sales matching filter, most recent first.
//
// Totals include every matching sale, including those beyond the display
// limit.
func NewClosedReport(l *Ledger, filter ClosedFilter) *ClosedReport {
	if !filter.All && filter.On.IsZero() {
		filter.On = date.Today()
	}
	report := &ClosedReport{Filter: filter}
	for _, sym := range requested(l, filter.Symbols, &report.Skipped) {
		var matching []ClosedLot
		for _, c := range l.ClosedLots(sym) {
			if filter.All || c.Closed == filter.On {
				matching = append(matching, c)
			}
		}
		if len(matching) == 0 {
			continue
		}
		// most recent first, same day sales in reverse order of sale
		slices.Reverse(matching)
		slices.SortStableFunc(matching, func(a, b ClosedLot) int {
			switch {
			case a.Closed.After(b.Closed):
				return -1
			case a.Closed.Before(b.Closed):
				return 1
			}
			return 0
		})

		s := ClosedSymbol{Symbol: sym, Count: len(matching)}
		for i, c := range matching {
			pl := Realized(c)
			s.Shares = s.Shares.Add(c.Shares)
			s.Total = s.Total.Add(pl)
			if filter.Limit <= 0 || i < filter.Limit {
				s.Rows = append(s.Rows, ClosedRow{ClosedLot: c, PL: pl})
			}
		}
		report.Total = report.Total.Add(s.Total)
		report.Symbols = append(report.Symbols, s)
	}
	return report
}

// requested returns the canonical symbols to report, in order. Unknown
// symbols are appended to skipped.
func requested(l *Ledger, symbols []string, skipped *[]string) []string {
	if len(symbols) == 0 {
		return slices.Collect(l.Symbols())
	}
	var res []string
	for _, s := range symbols {
		sym := Symbol(s)
		if !l.HasSymbol(sym) {
			log.Debug().Str("symbol", sym).Msg("skipping unknown symbol")
			*skipped = append(*skipped, sym)
			continue
		}
		if !slices.Contains(res, sym) {
			res = append(res, sym)
		}
	}
	return res
}
