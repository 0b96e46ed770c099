package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type fixSymbolsCmd struct{}

func (*fixSymbolsCmd) Name() string { return "fix-symbols" }
func (*fixSymbolsCmd) Synopsis() string {
	return "move sold lots left in the open section to the closed section"
}
func (*fixSymbolsCmd) Usage() string {
	return `pricer fix-symbols

  Repairs a ledger file written by older versions, where sold lots stayed in
  the "open" section with their sale appended. They are moved to the "closed"
  section, and open lots without shares are dropped. The file is rewritten in
  canonical form only when something was fixed.

`
}

func (*fixSymbolsCmd) SetFlags(f *flag.FlagSet) {}

func (*fixSymbolsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		return usageError("fix-symbols takes no arguments")
	}
	n, err := openStore().Migrate()
	if err != nil {
		return failure(err)
	}
	fmt.Printf("Fixed %d lots\n", n)
	return subcommands.ExitSuccess
}
