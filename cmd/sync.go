package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/lfpereira/carteira/date"
)

type syncCmd struct{}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "refresh cached index rates and treasury unit prices" }
func (*syncCmd) Usage() string {
	return `carteira sync

  Backfills the reference-rate series (CDI, SELIC, IPCA) and the Tesouro
  Direto unit prices for every instrument the portfolio holds. Meant to run
  daily: the Tesouro endpoint only publishes the current day's prices, so the
  history is whatever the cache accumulated.
`
}

func (*syncCmd) SetFlags(*flag.FlagSet) {}

func (c *syncCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	flows, err := a.Source.Flows(ctx, a.UserID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading cash flows: %v\n", err)
		return subcommands.ExitFailure
	}
	configs, err := a.Source.Configs(ctx, a.UserID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading instrument configs: %v\n", err)
		return subcommands.ExitFailure
	}
	a.Engine.Refresh(ctx, flows, configs, date.Today())
	fmt.Println("Caches refreshed.")
	return subcommands.ExitSuccess
}
