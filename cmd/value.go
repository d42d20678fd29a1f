package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/lfpereira/carteira"
	"github.com/lfpereira/carteira/date"
)

type valueCmd struct {
	instrument string
	on         string
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "value a single instrument at a date" }
func (*valueCmd) Usage() string {
	return `carteira value -i <instrument> [-d <date>]

  Values one instrument at the given date (today by default). The instrument
  is selected by id or by name.
`
}

func (c *valueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.instrument, "i", "", "Instrument id or name")
	f.StringVar(&c.on, "d", "", "Valuation date (defaults to today)")
}

func (c *valueCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if c.instrument == "" {
		fmt.Fprintln(os.Stderr, "Error: -i is required")
		return subcommands.ExitUsageError
	}
	target := date.Today()
	if c.on != "" {
		var err error
		target, err = date.Parse(c.on)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -d date %q: %v\n", c.on, err)
			return subcommands.ExitUsageError
		}
	}

	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	configs, err := a.Source.Configs(ctx, a.UserID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading instrument configs: %v\n", err)
		return subcommands.ExitFailure
	}
	cfg, ok := findInstrument(configs, c.instrument)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: no instrument matches %q\n", c.instrument)
		return subcommands.ExitFailure
	}
	flows, err := a.Source.Flows(ctx, a.UserID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading cash flows: %v\n", err)
		return subcommands.ExitFailure
	}
	var own []carteira.CashFlowEvent
	for _, fl := range flows {
		if fl.InstrumentID == cfg.InstrumentID {
			own = append(own, fl)
		}
	}

	value := a.Engine.ValueAt(ctx, cfg, own, target)
	fmt.Printf("%s on %s: %s\n", cfg.Name, target, carteira.M(value, carteira.BRL))
	return subcommands.ExitSuccess
}

// findInstrument matches by exact id first, then by case-insensitive name.
func findInstrument(configs []carteira.InstrumentConfig, key string) (carteira.InstrumentConfig, bool) {
	if id, err := uuid.Parse(key); err == nil {
		for _, cfg := range configs {
			if cfg.InstrumentID == id {
				return cfg, true
			}
		}
	}
	for _, cfg := range configs {
		if strings.EqualFold(cfg.Name, key) {
			return cfg, true
		}
	}
	return carteira.InstrumentConfig{}, false
}
