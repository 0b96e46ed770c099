// Package cmd implements the CLI application to manage a lot ledger.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/etnz/pricer"
	"github.com/etnz/pricer/date"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&addCmd{}, "lots")
	c.Register(&removeCmd{}, "lots")
	c.Register(subcommands.Alias("rm", &removeCmd{}), "lots")
	c.Register(&subCmd{}, "lots")
	c.Register(subcommands.Alias("dec", &subCmd{}), "lots")
	c.Register(&incrementCmd{}, "lots")
	c.Register(subcommands.Alias("inc", &incrementCmd{}), "lots")

	c.Register(&untilCmd{}, "holds")
	c.Register(&deuntilCmd{}, "holds")
	c.Register(subcommands.Alias("du", &deuntilCmd{}), "holds")
	c.Register(&deuntilAllCmd{}, "holds")

	c.Register(&hideCmd{}, "display")
	c.Register(&unhideCmd{}, "display")
	c.Register(&noteCmd{}, "display")
	c.Register(&excludeCmd{}, "display")
	c.Register(&includeCmd{}, "display")

	c.Register(&showOpenCmd{}, "reports")
	c.Register(&showClosedCmd{}, "reports")
	c.Register(&checkCmd{}, "reports")
	c.Register(&checkSellCmd{}, "reports")

	c.Register(&fixSymbolsCmd{}, "maintenance")
	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	ledgerFlag = flag.String("f", "", "Path to the ledger file (default ~/"+defaultLedgerName+")")
	configFlag = flag.String("config", "", "Path to the TOML configuration file (default ~/.config/pricer/config.toml)")
	// Verbose enables debug logging.
	Verbose = flag.Bool("v", false, "Enable debug logging")
)

// settings are resolved by Setup, once flags are parsed.
var settings = &Settings{}

// Setup resolves the settings from flags, environment and configuration
// file, then configures logging. It must be called after flag.Parse.
func Setup() error {
	s, err := LoadSettings(*ledgerFlag, *configFlag, *Verbose)
	if err != nil {
		return err
	}
	settings = s
	return SetupLogging(s.LogLevel)
}

// openStore returns the store of the configured ledger file.
func openStore() *pricer.Store { return pricer.NewStore(settings.LedgerFile) }

// failure prints err and returns ExitFailure.
func failure(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

// usageError prints a usage problem and returns ExitUsageError.
func usageError(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %s\n", fmt.Sprintf(format, args...))
	return subcommands.ExitUsageError
}

// positional returns the positional arguments of f, accepting flags after
// them, as in "pricer sub AAA 5 -price 10".
func positional(f *flag.FlagSet) ([]string, error) {
	var args []string
	rest := f.Args()
	for len(rest) > 0 {
		a := rest[0]
		switch {
		case a == "--":
			return append(args, rest[1:]...), nil
		case isFlag(a):
			if err := f.Parse(rest); err != nil {
				return nil, err
			}
			rest = f.Args()
		default:
			args = append(args, a)
			rest = rest[1:]
		}
	}
	return args, nil
}

// isFlag tells flags apart from positional values, negative numbers included.
func isFlag(a string) bool {
	if len(a) < 2 || a[0] != '-' {
		return false
	}
	_, err := strconv.ParseFloat(a, 64)
	return err != nil
}

// parseIndex parses an optional visible index argument, 0 by default.
func parseIndex(args []string, i int) (int, error) {
	if len(args) <= i {
		return 0, nil
	}
	index, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", args[i])
	}
	return index, nil
}

// parseDate parses an optional date flag, the zero date when empty.
func parseDate(s string) (date.Date, error) {
	if s == "" {
		return date.Date{}, nil
	}
	return date.Parse(s)
}

// parseMoney parses a per share price in the ledger currency.
func parseMoney(s string) (pricer.Money, error) {
	return pricer.ParseMoney(strings.TrimPrefix(s, "$"), pricer.DefaultCurrency)
}
