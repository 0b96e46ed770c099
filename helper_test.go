package pricer

import (
	"testing"

	"github.com/etnz/pricer/date"
	"github.com/google/go-cmp/cmp"
)

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// cmpOpts compares decimal backed values by value.
var cmpOpts = cmp.Options{
	cmp.Comparer(func(a, b Quantity) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b Money) bool { return a.Cmp(b) == 0 }),
	cmp.Comparer(func(a, b date.Date) bool { return a == b }),
	cmp.Comparer(func(a, b Percent) bool { return a.Equal(b) }),
}

// d is a short hand for fixed dates in tests.
func d(s string) date.Date { return date.MustParse(s) }

// mustAdd adds a lot or fails the test.
func mustAdd(t *testing.T, l *Ledger, symbol string, shares, cost float64, until string, on string) {
	t.Helper()
	if _, err := l.AddLot(symbol, Q(shares), USD(cost), until, d(on)); err != nil {
		t.Fatalf("AddLot(%s, %v, %v) error = %v", symbol, shares, cost, err)
	}
}

// aaaLedger holds two AAA lots: 10 at 100 then 5 at 90.
func aaaLedger(t *testing.T) *Ledger {
	t.Helper()
	l := NewLedger()
	mustAdd(t, l, "AAA", 10, 100, "", "2025-01-01")
	mustAdd(t, l, "AAA", 5, 90, "", "2025-01-02")
	return l
}
