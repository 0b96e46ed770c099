package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/etnz/pricer"
	"github.com/google/subcommands"
)

type untilCmd struct{}

func (*untilCmd) Name() string     { return "until" }
func (*untilCmd) Synopsis() string { return "set the hold-until reminder of a lot" }
func (*untilCmd) Usage() string {
	return `pricer until <symbol> <note> [index]

  Annotates the lot at visible position [index] (0 by default) with a
  reminder not to sell it before <note>, like "2026-01-15" or "earnings".

`
}

func (*untilCmd) SetFlags(f *flag.FlagSet) {}

func (*untilCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args, err := positional(f)
	if err != nil {
		return usageError("%v", err)
	}
	if len(args) < 2 || len(args) > 3 {
		return usageError("until requires <symbol> <note> [index]")
	}
	if strings.TrimSpace(args[1]) == "" {
		return usageError("empty note, use deuntil to clear it")
	}
	index, err := parseIndex(args, 2)
	if err != nil {
		return usageError("%v", err)
	}
	err = openStore().Update(func(l *pricer.Ledger) error {
		_, err := l.SetHoldUntil(args[0], index, args[1])
		return err
	})
	if err != nil {
		return failure(err)
	}
	return subcommands.ExitSuccess
}

type deuntilCmd struct{}

func (*deuntilCmd) Name() string     { return "deuntil" }
func (*deuntilCmd) Synopsis() string { return "clear the hold-until reminder of a lot" }
func (*deuntilCmd) Usage() string {
	return `pricer deuntil <symbol> [index]

  Clears the reminder of the lot at visible position [index] (0 by default).

`
}

func (*deuntilCmd) SetFlags(f *flag.FlagSet) {}

func (*deuntilCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args, err := positional(f)
	if err != nil {
		return usageError("%v", err)
	}
	if len(args) < 1 || len(args) > 2 {
		return usageError("deuntil requires <symbol> [index]")
	}
	index, err := parseIndex(args, 1)
	if err != nil {
		return usageError("%v", err)
	}
	err = openStore().Update(func(l *pricer.Ledger) error {
		_, err := l.SetHoldUntil(args[0], index, "")
		return err
	})
	if err != nil {
		return failure(err)
	}
	return subcommands.ExitSuccess
}

type deuntilAllCmd struct{}

func (*deuntilAllCmd) Name() string     { return "deuntil-all" }
func (*deuntilAllCmd) Synopsis() string { return "clear every hold-until reminder" }
func (*deuntilAllCmd) Usage() string {
	return `pricer deuntil-all

  Clears the reminders of every open lot, hidden lots included.

`
}

func (*deuntilAllCmd) SetFlags(f *flag.FlagSet) {}

func (*deuntilAllCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		return usageError("deuntil-all takes no arguments")
	}
	var n int
	err := openStore().Update(func(l *pricer.Ledger) error {
		n = l.ClearAllHolds()
		return nil
	})
	if err != nil {
		return failure(err)
	}
	fmt.Printf("Cleared %d reminders\n", n)
	return subcommands.ExitSuccess
}
