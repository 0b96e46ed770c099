package cmd

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/etnz/pricer"
	"github.com/etnz/pricer/renderer"
	"github.com/google/subcommands"
)

// priceFlag collects repeated -price SYMBOL=PRICE flags.
type priceFlag pricer.StaticQuotes

func (p priceFlag) String() string {
	var s []string
	for sym, price := range p {
		s = append(s, sym+"="+price.Amount())
	}
	sort.Strings(s)
	return strings.Join(s, ",")
}

func (p priceFlag) Set(v string) error {
	sym, price, ok := strings.Cut(v, "=")
	if !ok || strings.TrimSpace(sym) == "" {
		return fmt.Errorf("want SYMBOL=PRICE, got %q", v)
	}
	m, err := parseMoney(price)
	if err != nil {
		return fmt.Errorf("invalid price for %s: %w", sym, err)
	}
	pricer.StaticQuotes(p).Set(sym, m)
	return nil
}

// showOpenCmd holds the flags for the 'show-open' subcommand.
type showOpenCmd struct {
	quotes string
	prices priceFlag
	watch  int
}

func (*showOpenCmd) Name() string     { return "show-open" }
func (*showOpenCmd) Synopsis() string { return "display open lots with their unrealized gains" }
func (*showOpenCmd) Usage() string {
	return `pricer show-open [symbols...] [-quotes <file>] [-price SYMBOL=PRICE ...] [-w n]

  Displays the visible open lots of the given symbols, or of every symbol.
  Prices are read from -price flags first, then from the quotes file. Symbols
  without a price, or excluded ones, are reported at cost.

`
}

func (c *showOpenCmd) SetFlags(f *flag.FlagSet) {
	c.prices = priceFlag{}
	f.StringVar(&c.quotes, "quotes", "", "JSON quotes file (defaults to the configured quotes file)")
	f.Var(c.prices, "price", "Price of a symbol as SYMBOL=PRICE, can be repeated")
	f.IntVar(&c.watch, "w", 0, "run every n seconds")
}

func (c *showOpenCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbols, err := positional(f)
	if err != nil {
		return usageError("%v", err)
	}
	for {
		if status := c.render(symbols); status != subcommands.ExitSuccess {
			return status
		}
		if c.watch <= 0 {
			return subcommands.ExitSuccess
		}
		select {
		case <-ctx.Done():
			return subcommands.ExitSuccess
		case <-time.After(time.Duration(c.watch) * time.Second):
			fmt.Println("\033[2J")
		}
	}
}

// render prints one open report. The ledger and quotes are read every time.
func (c *showOpenCmd) render(symbols []string) subcommands.ExitStatus {
	l, err := openStore().Load()
	if err != nil {
		return failure(err)
	}
	quoter, err := c.quoter()
	if err != nil {
		return failure(err)
	}
	report, err := pricer.NewOpenReport(l, quoter, symbols...)
	if err != nil {
		return failure(err)
	}
	printMarkdown(renderer.RenderOpenReport(report))
	return subcommands.ExitSuccess
}

// quoter returns the quote sources, nil when there is none.
func (c *showOpenCmd) quoter() (pricer.Quoter, error) {
	var qs pricer.Quoters
	if len(c.prices) > 0 {
		qs = append(qs, pricer.StaticQuotes(c.prices))
	}
	if path := first(expandHome(c.quotes), settings.QuotesFile); path != "" {
		file, err := pricer.LoadQuoteFile(path, settings.QuotePaths)
		if err != nil {
			return nil, err
		}
		qs = append(qs, file)
	}
	if len(qs) == 0 {
		return nil, nil
	}
	return qs, nil
}

// showClosedCmd holds the flags for the 'show-closed' subcommand.
type showClosedCmd struct {
	limit int
	date  string
	all   bool
}

func (*showClosedCmd) Name() string     { return "show-closed" }
func (*showClosedCmd) Synopsis() string { return "display realized gains of sold lots" }
func (*showClosedCmd) Usage() string {
	return `pricer show-closed [symbols...] [-limit n] [-date <date>] [-all]

  Displays the sales of a day (today by default), or of all time with -all,
  most recent first. -limit caps the sales displayed per symbol, totals still
  include every sale.

`
}

func (c *showClosedCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "limit", 0, "Maximum sales displayed per symbol, 0 for no limit")
	f.StringVar(&c.date, "date", "", "Day of the sales (defaults to today)")
	f.BoolVar(&c.all, "all", false, "Display sales of every day")
}

func (c *showClosedCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbols, err := positional(f)
	if err != nil {
		return usageError("%v", err)
	}
	on, err := parseDate(c.date)
	if err != nil {
		return usageError("invalid date: %v", err)
	}
	if c.all && !on.IsZero() {
		return usageError("-all and -date are exclusive")
	}
	l, err := openStore().Load()
	if err != nil {
		return failure(err)
	}
	report := pricer.NewClosedReport(l, pricer.ClosedFilter{
		Symbols: symbols,
		On:      on,
		All:     c.all,
		Limit:   c.limit,
	})
	printMarkdown(renderer.RenderClosedReport(report))
	return subcommands.ExitSuccess
}

type checkCmd struct{}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "compute the return of a hypothetical trade" }
func (*checkCmd) Usage() string {
	return `pricer check <buy> <sell> <shares>

  Prints the gain of buying <shares> at <buy> and selling them at <sell>.

`
}

func (*checkCmd) SetFlags(f *flag.FlagSet) {}

func (*checkCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args, err := positional(f)
	if err != nil {
		return usageError("%v", err)
	}
	if len(args) != 3 {
		return usageError("check requires <buy> <sell> <shares>")
	}
	buy, err := parseMoney(args[0])
	if err != nil {
		return usageError("invalid buy price %q", args[0])
	}
	sell, err := parseMoney(args[1])
	if err != nil {
		return usageError("invalid sell price %q", args[1])
	}
	shares, err := pricer.ParseQuantity(args[2])
	if err != nil {
		return usageError("invalid shares %q", args[2])
	}
	fmt.Println(pricer.Realized(pricer.ClosedLot{Shares: shares, Cost: buy, SellPrice: sell}))
	return subcommands.ExitSuccess
}

type checkSellCmd struct{}

func (*checkSellCmd) Name() string     { return "check-sell" }
func (*checkSellCmd) Synopsis() string { return "compute the return of selling a symbol" }
func (*checkSellCmd) Usage() string {
	return `pricer check-sell <symbol> <price>

  Prints the gain of selling every visible lot of <symbol> at <price>.

`
}

func (*checkSellCmd) SetFlags(f *flag.FlagSet) {}

func (*checkSellCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args, err := positional(f)
	if err != nil {
		return usageError("%v", err)
	}
	if len(args) != 2 {
		return usageError("check-sell requires <symbol> <price>")
	}
	price, err := parseMoney(args[1])
	if err != nil {
		return usageError("invalid price %q", args[1])
	}
	l, err := openStore().Load()
	if err != nil {
		return failure(err)
	}
	if !l.HasSymbol(args[0]) {
		return failure(fmt.Errorf("%w: %s", pricer.ErrSymbolNotFound, pricer.Symbol(args[0])))
	}
	var gain pricer.Money
	for _, lot := range l.VisibleLots(args[0]) {
		// a zero cost basis still has a gain
		g, _ := pricer.Unrealized(lot, price)
		gain = gain.Add(g.Value)
	}
	fmt.Println(gain)
	return subcommands.ExitSuccess
}
