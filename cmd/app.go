// Package cmd implements the CLI application to inspect a portfolio's
// valuation and returns.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/lfpereira/carteira"
	"github.com/lfpereira/carteira/date"
	"github.com/lfpereira/carteira/store"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on
// the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&returnsCmd{}, "reports")
	c.Register(&monthlyCmd{}, "reports")
	c.Register(&breakdownCmd{}, "reports")
	c.Register(&valueCmd{}, "reports")

	c.Register(&syncCmd{}, "market data")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to
// use global variables.

var dsn = flag.String("dsn", os.Getenv("CARTEIRA_DSN"), "Postgres connection string (defaults to $CARTEIRA_DSN)")
var userFlag = flag.String("user", os.Getenv("CARTEIRA_USER"), "User id owning the portfolio (defaults to $CARTEIRA_USER)")

// app bundles the engine and its storage for one command execution.
type app struct {
	Engine *carteira.Engine
	Source carteira.CashFlowSource
	UserID uuid.UUID
}

// openApp wires the engine over Postgres: cash flows and configs are read
// from the flow tables, index rates and treasury marks through their cache
// repositories.
func openApp() (*app, error) {
	if *dsn == "" {
		return nil, errors.New("no -dsn configured: cash flows live in Postgres")
	}
	userID, err := uuid.Parse(*userFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid -user id %q: %w", *userFlag, err)
	}

	db, err := store.Open(*dsn)
	if err != nil {
		return nil, err
	}
	source := store.NewFlowStore(db)

	indexes := carteira.NewIndexService(store.NewIndexStore(db), carteira.NewBCBProvider())
	treasury := carteira.NewTreasuryService(store.NewTreasuryStore(db), carteira.NewTesouroProvider())
	market := carteira.NewMarketData(carteira.NewBrapiProvider())
	return &app{
		Engine: carteira.NewEngine(indexes, treasury, market),
		Source: source,
		UserID: userID,
	}, nil
}

// parseRange resolves the report window from the -from/-to flags. An empty
// end means today; an empty start means one year before the end.
func parseRange(from, to string) (date.Range, error) {
	end := date.Today()
	if to != "" {
		var err error
		end, err = date.Parse(to)
		if err != nil {
			return date.Range{}, fmt.Errorf("invalid -to date %q: %w", to, err)
		}
	}
	start := end.AddMonths(-12)
	if from != "" {
		var err error
		start, err = date.Parse(from)
		if err != nil {
			return date.Range{}, fmt.Errorf("invalid -from date %q: %w", from, err)
		}
	}
	return date.NewRange(start, end), nil
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when the renderer cannot initialize (e.g. no TTY).
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
