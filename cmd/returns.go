package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/lfpereira/carteira"
	"github.com/lfpereira/carteira/renderer"
)

type returnsCmd struct {
	from string
	to   string
}

func (*returnsCmd) Name() string     { return "returns" }
func (*returnsCmd) Synopsis() string { return "display the daily portfolio valuation and returns" }
func (*returnsCmd) Usage() string {
	return `carteira returns [-from <date>] [-to <date>]

  Reconstructs the portfolio day by day over the window and displays the
  value, the daily return net of cash flows, and the cumulative return.
`
}

func (c *returnsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First day of the report window (defaults to one year before -to)")
	f.StringVar(&c.to, "to", "", "Last day of the report window (defaults to today)")
}

func (c *returnsCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	report, status := generateReport(ctx, c.from, c.to)
	if status != subcommands.ExitSuccess {
		return status
	}
	printMarkdown(renderer.ReturnsMarkdown(report))
	return subcommands.ExitSuccess
}

// generateReport runs one valuation over the requested window. Shared by the
// report subcommands, which differ only in which view they render.
func generateReport(ctx context.Context, from, to string) (*carteira.ReturnReport, subcommands.ExitStatus) {
	r, err := parseRange(from, to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, subcommands.ExitUsageError
	}
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, subcommands.ExitUsageError
	}
	flows, err := a.Source.Flows(ctx, a.UserID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading cash flows: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	configs, err := a.Source.Configs(ctx, a.UserID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading instrument configs: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	report, err := a.Engine.DailyReturns(ctx, flows, configs, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	return report, subcommands.ExitSuccess
}
