package cmd

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"github.com/lfpereira/carteira/renderer"
)

type monthlyCmd struct {
	from string
	to   string
}

func (*monthlyCmd) Name() string     { return "monthly" }
func (*monthlyCmd) Synopsis() string { return "display the compounded return of each month" }
func (*monthlyCmd) Usage() string {
	return `carteira monthly [-from <date>] [-to <date>]

  Displays the portfolio's return per competence month, compounded from the
  daily series, and the compounded total of the period.
`
}

func (c *monthlyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First day of the report window (defaults to one year before -to)")
	f.StringVar(&c.to, "to", "", "Last day of the report window (defaults to today)")
}

func (c *monthlyCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	report, status := generateReport(ctx, c.from, c.to)
	if status != subcommands.ExitSuccess {
		return status
	}
	printMarkdown(renderer.MonthlyMarkdown(report))
	return subcommands.ExitSuccess
}
