package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"github.com/lfpereira/carteira/renderer"
)

type breakdownCmd struct {
	from string
	to   string
}

func (*breakdownCmd) Name() string     { return "breakdown" }
func (*breakdownCmd) Synopsis() string { return "display per-instrument monthly returns" }
func (*breakdownCmd) Usage() string {
	return `carteira breakdown [-from <date>] [-to <date>]

  Displays each instrument's own monthly return and the value it started
  the month with, grouped by competence and asset subclass.
`
}

func (c *breakdownCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First day of the report window (defaults to one year before -to)")
	f.StringVar(&c.to, "to", "", "Last day of the report window (defaults to today)")
}

func (c *breakdownCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	report, status := generateReport(ctx, c.from, c.to)
	if status != subcommands.ExitSuccess {
		return status
	}
	printMarkdown(renderer.BreakdownMarkdown(report))
	return subcommands.ExitSuccess
}
