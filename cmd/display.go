package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/etnz/pricer"
	"github.com/google/subcommands"
)

type hideCmd struct{}

func (*hideCmd) Name() string     { return "hide" }
func (*hideCmd) Synopsis() string { return "hide a lot from reports" }
func (*hideCmd) Usage() string {
	return `pricer hide <symbol> [index]

  Hides the lot at visible position [index] (0 by default). Hidden lots are
  kept but no longer displayed nor addressed by index, so the following lots
  move up one position.

`
}

func (*hideCmd) SetFlags(f *flag.FlagSet) {}

func (*hideCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args, err := positional(f)
	if err != nil {
		return usageError("%v", err)
	}
	if len(args) < 1 || len(args) > 2 {
		return usageError("hide requires <symbol> [index]")
	}
	index, err := parseIndex(args, 1)
	if err != nil {
		return usageError("%v", err)
	}
	err = openStore().Update(func(l *pricer.Ledger) error {
		_, err := l.Hide(args[0], index)
		return err
	})
	if err != nil {
		return failure(err)
	}
	return subcommands.ExitSuccess
}

type unhideCmd struct{}

func (*unhideCmd) Name() string     { return "unhide" }
func (*unhideCmd) Synopsis() string { return "show every hidden lot of a symbol again" }
func (*unhideCmd) Usage() string {
	return `pricer unhide <symbol>

`
}

func (*unhideCmd) SetFlags(f *flag.FlagSet) {}

func (*unhideCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args, err := positional(f)
	if err != nil {
		return usageError("%v", err)
	}
	if len(args) != 1 {
		return usageError("unhide requires <symbol>")
	}
	var n int
	err = openStore().Update(func(l *pricer.Ledger) (err error) {
		n, err = l.UnhideAll(args[0])
		return err
	})
	if err != nil {
		return failure(err)
	}
	fmt.Printf("%d lots of %s shown again\n", n, pricer.Symbol(args[0]))
	return subcommands.ExitSuccess
}

type noteCmd struct{}

func (*noteCmd) Name() string     { return "note" }
func (*noteCmd) Synopsis() string { return "set or clear the note of a symbol" }
func (*noteCmd) Usage() string {
	return `pricer note <symbol> [text...]

  Sets the note displayed under the symbol in reports. Without text, the note
  is cleared.

`
}

func (*noteCmd) SetFlags(f *flag.FlagSet) {}

func (*noteCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args, err := positional(f)
	if err != nil {
		return usageError("%v", err)
	}
	if len(args) < 1 {
		return usageError("note requires <symbol>")
	}
	text := strings.Join(args[1:], " ")
	err = openStore().Update(func(l *pricer.Ledger) error {
		l.SetNote(args[0], text)
		return nil
	})
	if err != nil {
		return failure(err)
	}
	return subcommands.ExitSuccess
}

type excludeCmd struct{}

func (*excludeCmd) Name() string     { return "exclude" }
func (*excludeCmd) Synopsis() string { return "stop quoting a symbol in reports" }
func (*excludeCmd) Usage() string {
	return `pricer exclude <symbol>

  Excluded symbols are reported at cost, without fetching a quote.

`
}

func (*excludeCmd) SetFlags(f *flag.FlagSet) {}

func (*excludeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return setExcluded(f, true)
}

type includeCmd struct{}

func (*includeCmd) Name() string     { return "include" }
func (*includeCmd) Synopsis() string { return "quote an excluded symbol again" }
func (*includeCmd) Usage() string {
	return `pricer include <symbol>

`
}

func (*includeCmd) SetFlags(f *flag.FlagSet) {}

func (*includeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return setExcluded(f, false)
}

func setExcluded(f *flag.FlagSet, excluded bool) subcommands.ExitStatus {
	args, err := positional(f)
	if err != nil {
		return usageError("%v", err)
	}
	if len(args) != 1 {
		return usageError("%s requires <symbol>", f.Name())
	}
	err = openStore().Update(func(l *pricer.Ledger) error {
		if excluded {
			l.Exclude(args[0])
		} else {
			l.Include(args[0])
		}
		return nil
	})
	if err != nil {
		return failure(err)
	}
	return subcommands.ExitSuccess
}
