package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/lfpereira/carteira/cmd"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// completion describes the CLI for shell completion. Run
// COMP_INSTALL=1 carteira to install it.
var completion = &complete.Command{
	Flags: map[string]complete.Predictor{
		"dsn":  predict.Something,
		"user": predict.Something,
	},
	Sub: map[string]*complete.Command{
		"returns":   {Flags: map[string]complete.Predictor{"from": predict.Something, "to": predict.Something}},
		"monthly":   {Flags: map[string]complete.Predictor{"from": predict.Something, "to": predict.Something}},
		"breakdown": {Flags: map[string]complete.Predictor{"from": predict.Something, "to": predict.Something}},
		"value":     {Flags: map[string]complete.Predictor{"i": predict.Something, "d": predict.Something}},
		"sync":      {},
	},
}

func main() {
	completion.Complete(path.Base(os.Args[0]))

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(subcommands.HelpCommand(), "")
	commander.Register(subcommands.FlagsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
