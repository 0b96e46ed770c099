package pricer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLedger_AddLot(t *testing.T) {
	l := aaaLedger(t)

	want := []OpenLot{
		{Shares: Q(5), Cost: USD(90), Opened: d("2025-01-02")},
		{Shares: Q(10), Cost: USD(100), Opened: d("2025-01-01")},
	}
	if diff := cmp.Diff(want, l.OpenLots("aaa"), cmpOpts); diff != "" {
		t.Errorf("OpenLots() mismatch (-want +got):\n%s", diff)
	}
	if got, want := l.Position("AAA"), Q(15); !got.Equal(want) {
		t.Errorf("Position() = %v, want %v", got, want)
	}
}

func TestLedger_AddLotKeepsOrder(t *testing.T) {
	tests := []struct {
		name  string
		costs []float64
	}{
		{"ascending", []float64{1, 2, 3, 4}},
		{"descending", []float64{4, 3, 2, 1}},
		{"ties", []float64{2, 1, 2, 1, 2}},
		{"mixed", []float64{10.5, 3, 99, 0, 3, 42.25, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger()
			var total Quantity
			for i, c := range tt.costs {
				// shares identify insertion order
				mustAdd(t, l, "SYM", float64(i+1), c, "", "2025-01-01")
				total = total.Add(Q(i + 1))
			}
			lots := l.OpenLots("SYM")
			for i := 1; i < len(lots); i++ {
				prev, cur := lots[i-1], lots[i]
				if cur.Cost.LessThan(prev.Cost) {
					t.Errorf("lot %d cost %v < lot %d cost %v", i, cur.Cost, i-1, prev.Cost)
				}
				if cur.Cost.Cmp(prev.Cost) == 0 && cur.Shares.LessThan(prev.Shares) {
					t.Errorf("lots of equal cost %v are not in insertion order", cur.Cost)
				}
			}
			if got := l.Position("SYM"); !got.Equal(total) {
				t.Errorf("Position() = %v, want %v", got, total)
			}
		})
	}
}

func TestLedger_AddLotErrors(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		shares Quantity
		cost   Money
		want   error
	}{
		{"zero shares", "AAA", Q(0), USD(1), ErrInvalidShareAmount},
		{"negative shares", "AAA", Q(-1), USD(1), ErrInvalidShareAmount},
		{"negative cost", "AAA", Q(1), USD(-1), ErrInvalidPrice},
		{"empty symbol", " ", Q(1), USD(1), ErrSymbolNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger()
			_, err := l.AddLot(tt.symbol, tt.shares, tt.cost, "", d("2025-01-01"))
			if !errors.Is(err, tt.want) {
				t.Errorf("AddLot() error = %v, want %v", err, tt.want)
			}
			if l.HasSymbol(tt.symbol) {
				t.Errorf("AddLot() created symbol %q on error", tt.symbol)
			}
		})
	}
}

func TestLedger_ResolveVisibleIndex(t *testing.T) {
	l := NewLedger()
	mustAdd(t, l, "AAA", 1, 10, "", "2025-01-01")
	mustAdd(t, l, "AAA", 2, 20, "", "2025-01-01")
	mustAdd(t, l, "AAA", 3, 30, "", "2025-01-01")
	if _, err := l.Hide("AAA", 0); err != nil {
		t.Fatalf("Hide() error = %v", err)
	}

	tests := []struct {
		index    int
		wantSlot int
		wantErr  error
	}{
		{index: 0, wantSlot: 1},
		{index: 1, wantSlot: 2},
		{index: 2, wantErr: ErrInvalidIndex},
		{index: -1, wantErr: ErrInvalidIndex},
		{index: 1000, wantErr: ErrInvalidIndex},
	}
	for _, tt := range tests {
		ref, err := l.ResolveVisibleIndex("AAA", tt.index)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("ResolveVisibleIndex(%d) error = %v, want %v", tt.index, err, tt.wantErr)
			continue
		}
		if err == nil && ref.Slot != tt.wantSlot {
			t.Errorf("ResolveVisibleIndex(%d) slot = %d, want %d", tt.index, ref.Slot, tt.wantSlot)
		}
	}

	if _, err := l.ResolveVisibleIndex("ZZZ", 0); !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("ResolveVisibleIndex(ZZZ) error = %v, want %v", err, ErrSymbolNotFound)
	}
}

func TestLedger_ResolveVisibleIndexAllHidden(t *testing.T) {
	l := NewLedger()
	mustAdd(t, l, "AAA", 1, 10, "", "2025-01-01")
	mustAdd(t, l, "AAA", 2, 20, "", "2025-01-01")
	for range 2 {
		if _, err := l.Hide("AAA", 0); err != nil {
			t.Fatalf("Hide() error = %v", err)
		}
	}
	if _, err := l.ResolveVisibleIndex("AAA", 0); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("ResolveVisibleIndex() error = %v, want %v", err, ErrInvalidIndex)
	}
	if got := l.Position("AAA"); !got.Equal(Q(3)) {
		t.Errorf("Position() = %v, want 3, hidden lots still count", got)
	}

	n, err := l.UnhideAll("AAA")
	if err != nil {
		t.Fatalf("UnhideAll() error = %v", err)
	}
	if n != 2 {
		t.Errorf("UnhideAll() = %d, want 2", n)
	}
	if got := len(l.VisibleLots("AAA")); got != 2 {
		t.Errorf("len(VisibleLots()) = %d, want 2", got)
	}
}

func TestLedger_CloseLot(t *testing.T) {
	l := aaaLedger(t)

	got, err := l.CloseLot("AAA", 0, USD(105), d("2025-02-01"))
	if err != nil {
		t.Fatalf("CloseLot() error = %v", err)
	}
	want := ClosedLot{Shares: Q(5), Cost: USD(90), Opened: d("2025-01-02"), SellPrice: USD(105), Closed: d("2025-02-01")}
	if diff := cmp.Diff(want, got, cmpOpts); diff != "" {
		t.Errorf("CloseLot() mismatch (-want +got):\n%s", diff)
	}
	if pl := Realized(got); pl.Cmp(USD(75)) != 0 {
		t.Errorf("Realized() = %v, want %v", pl, USD(75))
	}
	if diff := cmp.Diff([]ClosedLot{want}, l.ClosedLots("AAA"), cmpOpts); diff != "" {
		t.Errorf("ClosedLots() mismatch (-want +got):\n%s", diff)
	}
	wantOpen := []OpenLot{{Shares: Q(10), Cost: USD(100), Opened: d("2025-01-01")}}
	if diff := cmp.Diff(wantOpen, l.OpenLots("AAA"), cmpOpts); diff != "" {
		t.Errorf("OpenLots() mismatch (-want +got):\n%s", diff)
	}
	if got := l.Position("AAA"); !got.Equal(Q(10)) {
		t.Errorf("Position() = %v, want 10", got)
	}
}

func TestLedger_CloseLotErrors(t *testing.T) {
	l := aaaLedger(t)
	if _, err := l.CloseLot("AAA", 2, USD(1), d("2025-02-01")); !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("CloseLot(2) error = %v, want %v", err, ErrInvalidIndex)
	}
	if _, err := l.CloseLot("AAA", 0, USD(-1), d("2025-02-01")); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("CloseLot(-1$) error = %v, want %v", err, ErrInvalidPrice)
	}
	if _, err := l.CloseLot("BBB", 0, USD(1), d("2025-02-01")); !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("CloseLot(BBB) error = %v, want %v", err, ErrSymbolNotFound)
	}
	if diff := cmp.Diff(aaaLedger(t).OpenLots("AAA"), l.OpenLots("AAA"), cmpOpts); diff != "" {
		t.Errorf("failed CloseLot() changed the ledger (-want +got):\n%s", diff)
	}
	if got := l.ClosedLots("AAA"); len(got) != 0 {
		t.Errorf("failed CloseLot() recorded %d closed lots", len(got))
	}
}

func TestLedger_ReduceShares(t *testing.T) {
	l := NewLedger()
	mustAdd(t, l, "AAA", 10, 100, "2026", "2025-01-01")

	got, err := l.ReduceShares("AAA", 0, Q(4), USD(120), d("2025-03-01"))
	if err != nil {
		t.Fatalf("ReduceShares() error = %v", err)
	}
	want := ClosedLot{Shares: Q(4), Cost: USD(100), Until: "2026", Opened: d("2025-01-01"), SellPrice: USD(120), Closed: d("2025-03-01")}
	if diff := cmp.Diff(want, got, cmpOpts); diff != "" {
		t.Errorf("ReduceShares() mismatch (-want +got):\n%s", diff)
	}
	wantOpen := []OpenLot{{Shares: Q(6), Cost: USD(100), Until: "2026", Opened: d("2025-01-01")}}
	if diff := cmp.Diff(wantOpen, l.OpenLots("AAA"), cmpOpts); diff != "" {
		t.Errorf("OpenLots() mismatch (-want +got):\n%s", diff)
	}

	// selling the remaining shares closes the lot
	if _, err := l.ReduceShares("AAA", 0, Q(6), USD(130), d("2025-03-02")); err != nil {
		t.Fatalf("ReduceShares() error = %v", err)
	}
	if got := l.OpenLots("AAA"); len(got) != 0 {
		t.Errorf("OpenLots() = %v, want none", got)
	}
	if got := len(l.ClosedLots("AAA")); got != 2 {
		t.Errorf("len(ClosedLots()) = %d, want 2", got)
	}
}

func TestLedger_ReduceSharesErrors(t *testing.T) {
	tests := []struct {
		name  string
		index int
		delta Quantity
		price Money
		want  error
	}{
		{"more than held", 0, Q(6), USD(1), ErrInvalidShareAmount},
		{"zero", 0, Q(0), USD(1), ErrInvalidShareAmount},
		{"negative", 0, Q(-1), USD(1), ErrInvalidShareAmount},
		{"negative price", 0, Q(1), USD(-1), ErrInvalidPrice},
		{"bad index", 5, Q(1), USD(1), ErrInvalidIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := aaaLedger(t)
			_, err := l.ReduceShares("AAA", tt.index, tt.delta, tt.price, d("2025-03-01"))
			if !errors.Is(err, tt.want) {
				t.Errorf("ReduceShares() error = %v, want %v", err, tt.want)
			}
			if diff := cmp.Diff(aaaLedger(t).OpenLots("AAA"), l.OpenLots("AAA"), cmpOpts); diff != "" {
				t.Errorf("failed ReduceShares() changed the ledger (-want +got):\n%s", diff)
			}
			if got := l.ClosedLots("AAA"); len(got) != 0 {
				t.Errorf("failed ReduceShares() recorded %d closed lots", len(got))
			}
		})
	}
}

func TestLedger_IncreaseShares(t *testing.T) {
	l := aaaLedger(t)
	if _, err := l.IncreaseShares("AAA", 1, Q(2.5)); err != nil {
		t.Fatalf("IncreaseShares() error = %v", err)
	}
	want := []OpenLot{
		{Shares: Q(5), Cost: USD(90), Opened: d("2025-01-02")},
		{Shares: Q(12.5), Cost: USD(100), Opened: d("2025-01-01")},
	}
	if diff := cmp.Diff(want, l.OpenLots("AAA"), cmpOpts); diff != "" {
		t.Errorf("OpenLots() mismatch (-want +got):\n%s", diff)
	}
	if _, err := l.IncreaseShares("AAA", 0, Q(0)); !errors.Is(err, ErrInvalidShareAmount) {
		t.Errorf("IncreaseShares(0) error = %v, want %v", err, ErrInvalidShareAmount)
	}
}

func TestLedger_SetHoldUntil(t *testing.T) {
	l := aaaLedger(t)
	before := l.OpenLots("AAA")

	if _, err := l.SetHoldUntil("AAA", 1, "2026-01"); err != nil {
		t.Fatalf("SetHoldUntil() error = %v", err)
	}
	if got := l.OpenLots("AAA")[1].Until; got != "2026-01" {
		t.Errorf("Until = %q, want %q", got, "2026-01")
	}

	for range 2 {
		if _, err := l.SetHoldUntil("AAA", 1, ""); err != nil {
			t.Fatalf("SetHoldUntil() error = %v", err)
		}
		if diff := cmp.Diff(before, l.OpenLots("AAA"), cmpOpts); diff != "" {
			t.Errorf("cleared hold mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestLedger_ClearAllHolds(t *testing.T) {
	l := NewLedger()
	mustAdd(t, l, "AAA", 1, 10, "2026", "2025-01-01")
	mustAdd(t, l, "AAA", 1, 11, "", "2025-01-01")
	mustAdd(t, l, "BBB", 1, 10, "taxes", "2025-01-01")

	if got := l.ClearAllHolds(); got != 2 {
		t.Errorf("ClearAllHolds() = %d, want 2", got)
	}
	for sym := range l.Symbols() {
		for _, lot := range l.OpenLots(sym) {
			if lot.Held() {
				t.Errorf("%s lot %v is still held", sym, lot)
			}
		}
	}
	if got := l.ClearAllHolds(); got != 0 {
		t.Errorf("second ClearAllHolds() = %d, want 0", got)
	}
}

func TestLedger_NotesAndExcludes(t *testing.T) {
	l := NewLedger()
	l.SetNote("aaa", "watch earnings")
	l.Exclude("bbb")
	l.Exclude("ccc")
	l.Include("ccc")

	if got := l.Note("AAA"); got != "watch earnings" {
		t.Errorf("Note() = %q, want %q", got, "watch earnings")
	}
	if !l.Excluded("BBB") || l.Excluded("CCC") {
		t.Errorf("Excludes() = %v, want [BBB]", l.Excludes())
	}
	l.SetNote("AAA", "")
	if got := l.Note("AAA"); got != "" {
		t.Errorf("Note() = %q after clear, want empty", got)
	}
	if l.HasSymbol("AAA") || l.HasSymbol("BBB") {
		t.Errorf("notes and excludes must not create symbols")
	}
}
