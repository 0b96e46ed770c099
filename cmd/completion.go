package cmd

import (
	"flag"
	"os"
	"slices"

	"github.com/etnz/pricer"
	"github.com/etnz/pricer/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion of the commands registered on c.
//
// Run it before flag.Parse: it only acts when called by the shell.
func Completion(c *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub: map[string]*complete.Command{},
		Flags: map[string]complete.Predictor{
			"f":      predict.Files("*.json"),
			"config": predict.Files("*.toml"),
			"v":      predict.Nothing,
		},
	}
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		sub := &complete.Command{Flags: map[string]complete.Predictor{}, Args: argsPredictor(cmd.Name())}
		fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
		cmd.SetFlags(fs)
		fs.VisitAll(func(f *flag.Flag) {
			sub.Flags[f.Name] = flagPredictor(f)
		})
		root.Sub[cmd.Name()] = sub
	})
	return root
}

func argsPredictor(name string) complete.Predictor {
	switch name {
	case "topic":
		topics, _ := docs.GetAllTopics()
		return predict.Set(topics)
	case "check", "deuntil-all", "fix-symbols":
		return predict.Nothing
	}
	return complete.PredictFunc(ledgerSymbols)
}

func flagPredictor(f *flag.Flag) complete.Predictor {
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return predict.Nothing
	}
	if f.Name == "quotes" {
		return predict.Files("*.json")
	}
	return predict.Something
}

// ledgerSymbols predicts the symbols of the ledger file, as far as it can be
// known before flags are parsed.
func ledgerSymbols(prefix string) []string {
	path := expandHome(first(os.Getenv(EnvLedgerFile), defaultLedgerFile()))
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	l, err := pricer.DecodeLedger(f)
	if err != nil {
		return nil
	}
	return slices.Collect(l.Symbols())
}
