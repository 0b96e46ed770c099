package pricer

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/stat"
)

func TestFold(t *testing.T) {
	l := aaaLedger(t)
	p := Fold(l.OpenLots("AAA"))

	if !p.Shares.Equal(Q(15)) {
		t.Errorf("Fold().Shares = %v, want 15", p.Shares)
	}
	// (5*90+10*100)/15
	if got, want := p.AvgCost.Float64(), 96.667; math.Abs(got-want) > 1e-3 {
		t.Errorf("Fold().AvgCost = %v, want %v", got, want)
	}
	if p.CostValue().Round(2).Cmp(USD(1450)) != 0 {
		t.Errorf("Fold().CostValue() = %v, want %v", p.CostValue(), USD(1450))
	}
}

func TestFoldMatchesWeightedMean(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for n := 1; n <= 50; n++ {
		l := NewLedger()
		for range n {
			shares := float64(r.IntN(1000)+1) / 4
			cost := float64(r.IntN(100000)) / 100
			mustAdd(t, l, "SYM", shares, cost, "", "2025-01-01")
		}
		lots := l.OpenLots("SYM")
		costs := make([]float64, len(lots))
		weights := make([]float64, len(lots))
		for i, lot := range lots {
			costs[i], weights[i] = lot.Cost.Float64(), lot.Shares.Float64()
		}
		want := stat.Mean(costs, weights)
		got := Fold(lots).AvgCost.Float64()
		if want == 0 {
			if got != 0 {
				t.Errorf("n=%d: Fold().AvgCost = %v, want 0", n, got)
			}
			continue
		}
		if rel := math.Abs(got-want) / math.Abs(want); rel > 1e-9 {
			t.Errorf("n=%d: Fold().AvgCost = %v, want %v (relative error %g)", n, got, want, rel)
		}
	}
}

func TestNewOpenReport(t *testing.T) {
	l := aaaLedger(t)
	if _, err := l.SetHoldUntil("AAA", 1, "2026"); err != nil {
		t.Fatal(err)
	}
	quotes := StaticQuotes{}
	quotes.Set("AAA", USD(110))

	report, err := NewOpenReport(l, quotes)
	if err != nil {
		t.Fatalf("NewOpenReport() error = %v", err)
	}
	if len(report.Symbols) != 1 {
		t.Fatalf("len(Symbols) = %d, want 1", len(report.Symbols))
	}
	aaa := report.Symbols[0]

	wantLots := []LineItem{
		{Symbol: "AAA", Cost: USD(90), ChangePercent: 22.2222, Shares: Q(5), Value: USD(100)},
		{Symbol: "AAA", Cost: USD(100), ChangePercent: 10, Shares: Q(10), Value: USD(100), Hold: "2026"},
	}
	if diff := cmp.Diff(wantLots, aaa.Lots, cmpOpts); diff != "" {
		t.Errorf("Lots mismatch (-want +got):\n%s", diff)
	}
	if aaa.Gain.Cmp(USD(200)) != 0 {
		t.Errorf("symbol Gain = %v, want %v", aaa.Gain, USD(200))
	}
	if aaa.MarketValue.Cmp(USD(1650)) != 0 {
		t.Errorf("symbol MarketValue = %v, want %v", aaa.MarketValue, USD(1650))
	}
	if report.Gain.Cmp(USD(200)) != 0 {
		t.Errorf("grand Gain = %v, want %v", report.Gain, USD(200))
	}
	if report.CostValue.Cmp(USD(1450)) != 0 {
		t.Errorf("grand CostValue = %v, want %v", report.CostValue, USD(1450))
	}
	// 110 against an average of 96.667
	if got, want := float64(aaa.Total.ChangePercent), 13.7931; math.Abs(got-want) > 1e-3 {
		t.Errorf("Total.ChangePercent = %v, want %v", got, want)
	}
}

func TestNewOpenReport_CostOnly(t *testing.T) {
	l := aaaLedger(t)
	mustAdd(t, l, "BBB", 2, 50, "", "2025-01-01")
	l.Exclude("BBB")
	quotes := StaticQuotes{}
	quotes.Set("BBB", USD(1000))

	report, err := NewOpenReport(l, quotes, "bbb", "aaa", "zzz")
	if err != nil {
		t.Fatalf("NewOpenReport() error = %v", err)
	}
	if diff := cmp.Diff([]string{"ZZZ"}, report.Skipped); diff != "" {
		t.Errorf("Skipped mismatch (-want +got):\n%s", diff)
	}
	if len(report.Symbols) != 2 {
		t.Fatalf("len(Symbols) = %d, want 2", len(report.Symbols))
	}
	for _, s := range report.Symbols {
		if s.Priced {
			t.Errorf("%s is priced, want cost only", s.Symbol)
		}
	}
	bbb := report.Symbols[0]
	if bbb.Symbol != "BBB" || !bbb.Excluded {
		t.Errorf("first symbol = %s (excluded %v), want excluded BBB", bbb.Symbol, bbb.Excluded)
	}
	if bbb.Lots[0].Value.Cmp(USD(100)) != 0 {
		t.Errorf("BBB lot Value = %v, want its cost %v", bbb.Lots[0].Value, USD(100))
	}
	if report.CostValue.Cmp(USD(1550)) != 0 {
		t.Errorf("grand CostValue = %v, want %v", report.CostValue, USD(1550))
	}
	if !report.Gain.IsZero() {
		t.Errorf("grand Gain = %v, want 0", report.Gain)
	}
}

func TestNewOpenReport_NilQuoter(t *testing.T) {
	report, err := NewOpenReport(aaaLedger(t), nil)
	if err != nil {
		t.Fatalf("NewOpenReport() error = %v", err)
	}
	if report.CostValue.Cmp(USD(1450)) != 0 {
		t.Errorf("grand CostValue = %v, want %v", report.CostValue, USD(1450))
	}
}

func TestNewClosedReport(t *testing.T) {
	l := NewLedger()
	mustAdd(t, l, "AAA", 10, 100, "", "2025-01-01")
	mustAdd(t, l, "AAA", 5, 90, "", "2025-01-02")
	mustAdd(t, l, "BBB", 4, 10, "", "2025-01-02")
	sales := []struct {
		sym    string
		shares float64
		price  float64
		on     string
	}{
		{"AAA", 1, 95, "2025-02-01"},  // +5
		{"AAA", 2, 110, "2025-03-01"}, // +40
		{"AAA", 1, 80, "2025-02-15"},  // -10
		{"BBB", 4, 12, "2025-03-01"},  // +8
	}
	for _, s := range sales {
		if _, err := l.ReduceShares(s.sym, 0, Q(s.shares), USD(s.price), d(s.on)); err != nil {
			t.Fatalf("ReduceShares(%v) error = %v", s, err)
		}
	}

	t.Run("all", func(t *testing.T) {
		r := NewClosedReport(l, ClosedFilter{All: true, Limit: 2})
		if r.Total.Cmp(USD(43)) != 0 {
			t.Errorf("Total = %v, want %v", r.Total, USD(43))
		}
		aaa := r.Symbols[0]
		if aaa.Count != 3 || len(aaa.Rows) != 2 {
			t.Errorf("AAA Count, Rows = %d, %d, want 3, 2", aaa.Count, len(aaa.Rows))
		}
		if aaa.Total.Cmp(USD(35)) != 0 {
			t.Errorf("AAA Total = %v, want %v, including undisplayed rows", aaa.Total, USD(35))
		}
		var got []string
		for _, row := range aaa.Rows {
			got = append(got, row.Closed.String())
		}
		if diff := cmp.Diff([]string{"2025-03-01", "2025-02-15"}, got); diff != "" {
			t.Errorf("AAA rows mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("on date", func(t *testing.T) {
		r := NewClosedReport(l, ClosedFilter{On: d("2025-03-01")})
		if len(r.Symbols) != 2 {
			t.Fatalf("len(Symbols) = %d, want 2", len(r.Symbols))
		}
		if r.Total.Cmp(USD(48)) != 0 {
			t.Errorf("Total = %v, want %v", r.Total, USD(48))
		}
	})

	t.Run("symbols", func(t *testing.T) {
		r := NewClosedReport(l, ClosedFilter{Symbols: []string{"bbb", "nope"}, All: true})
		if len(r.Symbols) != 1 || r.Symbols[0].Symbol != "BBB" {
			t.Fatalf("Symbols = %v, want [BBB]", r.Symbols)
		}
		if diff := cmp.Diff([]string{"NOPE"}, r.Skipped); diff != "" {
			t.Errorf("Skipped mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("nothing that day", func(t *testing.T) {
		r := NewClosedReport(l, ClosedFilter{On: d("2020-01-01")})
		if len(r.Symbols) != 0 || !r.Total.IsZero() {
			t.Errorf("NewClosedReport() = %d symbols, total %v, want none", len(r.Symbols), r.Total)
		}
	})
}
