package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/etnz/pricer"
	"github.com/google/subcommands"
)

// addCmd records a purchase.
type addCmd struct {
	until string
	date  string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a purchase of shares as a new lot" }
func (*addCmd) Usage() string {
	return `pricer add <symbol> <shares> <cost> [-until <note>] [-date <date>]

  Records a purchase of <shares> of <symbol> at <cost> per share. Lots are
  kept sorted by cost, the new lot goes after the lots of lower or equal cost.

`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.until, "until", "", "Hold-until reminder for the lot, like a date or an event")
	f.StringVar(&c.date, "date", "", "Purchase date (defaults to today)")
}

func (c *addCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args, err := positional(f)
	if err != nil {
		return usageError("%v", err)
	}
	if len(args) != 3 {
		return usageError("add requires <symbol> <shares> <cost>")
	}
	shares, err := pricer.ParseQuantity(args[1])
	if err != nil {
		return usageError("invalid shares %q", args[1])
	}
	cost, err := parseMoney(args[2])
	if err != nil {
		return usageError("invalid cost %q", args[2])
	}
	on, err := parseDate(c.date)
	if err != nil {
		return usageError("invalid date: %v", err)
	}

	var ref pricer.LotRef
	err = openStore().Update(func(l *pricer.Ledger) (err error) {
		ref, err = l.AddLot(args[0], shares, cost, c.until, on)
		return err
	})
	if err != nil {
		return failure(err)
	}
	fmt.Printf("Added %s %s at %s as position %d\n", shares, ref.Symbol, cost, ref.Index)
	return subcommands.ExitSuccess
}

// removeCmd sells a whole lot.
type removeCmd struct {
	date string
}

func (*removeCmd) Name() string     { return "remove" }
func (*removeCmd) Synopsis() string { return "sell a whole lot" }
func (*removeCmd) Usage() string {
	return `pricer remove <symbol> <sellPrice> <index> [-date <date>]

  Sells every share of the lot at visible position <index> at <sellPrice> per
  share. The lot is moved to the closed lots.

`
}

func (c *removeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Sale date (defaults to today)")
}

func (c *removeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args, err := positional(f)
	if err != nil {
		return usageError("%v", err)
	}
	if len(args) != 3 {
		return usageError("remove requires <symbol> <sellPrice> <index>")
	}
	price, err := parseMoney(args[1])
	if err != nil {
		return usageError("invalid sell price %q", args[1])
	}
	index, err := parseIndex(args, 2)
	if err != nil {
		return usageError("%v", err)
	}
	on, err := parseDate(c.date)
	if err != nil {
		return usageError("invalid date: %v", err)
	}

	var closed pricer.ClosedLot
	err = openStore().Update(func(l *pricer.Ledger) (err error) {
		closed, err = l.CloseLot(args[0], index, price, on)
		return err
	})
	if err != nil {
		return failure(err)
	}
	fmt.Printf("Sold %s %s at %s: %s\n", closed.Shares, pricer.Symbol(args[0]), price, pricer.Realized(closed).SignedString())
	return subcommands.ExitSuccess
}

// subCmd sells part of a lot.
type subCmd struct {
	price string
	date  string
}

func (*subCmd) Name() string     { return "sub" }
func (*subCmd) Synopsis() string { return "sell some shares of a lot" }
func (*subCmd) Usage() string {
	return `pricer sub <symbol> <shares> [index] -price <sellPrice> [-date <date>]

  Sells <shares> of the lot at visible position [index] (0 by default). The
  sale is recorded as a closed lot. Selling every share closes the lot.

`
}

func (c *subCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.price, "price", "", "Sell price per share (required)")
	f.StringVar(&c.date, "date", "", "Sale date (defaults to today)")
}

func (c *subCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args, err := positional(f)
	if err != nil {
		return usageError("%v", err)
	}
	if len(args) < 2 || len(args) > 3 {
		return usageError("sub requires <symbol> <shares> [index]")
	}
	if c.price == "" {
		return usageError("sub requires -price")
	}
	shares, err := pricer.ParseQuantity(args[1])
	if err != nil {
		return usageError("invalid shares %q", args[1])
	}
	price, err := parseMoney(c.price)
	if err != nil {
		return usageError("invalid sell price %q", c.price)
	}
	index, err := parseIndex(args, 2)
	if err != nil {
		return usageError("%v", err)
	}
	on, err := parseDate(c.date)
	if err != nil {
		return usageError("invalid date: %v", err)
	}

	var closed pricer.ClosedLot
	err = openStore().Update(func(l *pricer.Ledger) (err error) {
		closed, err = l.ReduceShares(args[0], index, shares, price, on)
		return err
	})
	if err != nil {
		return failure(err)
	}
	fmt.Printf("Sold %s %s at %s: %s\n", closed.Shares, pricer.Symbol(args[0]), price, pricer.Realized(closed).SignedString())
	return subcommands.ExitSuccess
}

// incrementCmd adds shares to an existing lot.
type incrementCmd struct{}

func (*incrementCmd) Name() string     { return "increment" }
func (*incrementCmd) Synopsis() string { return "add shares to an existing lot" }
func (*incrementCmd) Usage() string {
	return `pricer increment <symbol> <shares> [index]

  Adds <shares> to the lot at visible position [index] (0 by default),
  keeping its cost.

`
}

func (*incrementCmd) SetFlags(f *flag.FlagSet) {}

func (*incrementCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args, err := positional(f)
	if err != nil {
		return usageError("%v", err)
	}
	if len(args) < 2 || len(args) > 3 {
		return usageError("increment requires <symbol> <shares> [index]")
	}
	shares, err := pricer.ParseQuantity(args[1])
	if err != nil {
		return usageError("invalid shares %q", args[1])
	}
	index, err := parseIndex(args, 2)
	if err != nil {
		return usageError("%v", err)
	}

	var held pricer.Quantity
	err = openStore().Update(func(l *pricer.Ledger) error {
		if _, err := l.IncreaseShares(args[0], index, shares); err != nil {
			return err
		}
		held = l.Position(args[0])
		return nil
	})
	if err != nil {
		return failure(err)
	}
	fmt.Printf("%s now holds %s shares\n", pricer.Symbol(args[0]), held)
	return subcommands.ExitSuccess
}
