package carteira

import (
	"strings"

	"github.com/google/uuid"
	"github.com/lfpereira/carteira/date"
)

// Indexer identifies the valuation model of an instrument.
type Indexer string

const (
	IndexerNone   Indexer = ""       // plain cash balance, no growth
	IndexerPre    Indexer = "PRE"    // fixed annual rate over a 252 basis
	IndexerCDI    Indexer = "CDI"    // percentage of the daily CDI rate
	IndexerSelic  Indexer = "SELIC"  // daily SELIC rate
	IndexerIPCA   Indexer = "IPCA"   // inflation plus a fixed real rate
	IndexerMarket Indexer = "MARKET" // priced by exchange closes
)

// defaultBasis is the business-day count used to annualize fixed rates.
const defaultBasis = 252

// InstrumentConfig is the quasi-static valuation configuration of one
// instrument. At most one active config exists per instrument; historical
// duplicates are resolved last-write-wins by the storage layer.
type InstrumentConfig struct {
	InstrumentID uuid.UUID `json:"instrument_id"`
	Name         string    `json:"name"`     // display label, e.g. "Tesouro Renda+ 2065"
	Symbol       string    `json:"symbol"`   // market ticker, empty when not exchange-quoted
	Currency     string    `json:"currency"` // quote currency, BRL unless foreign
	Subclass     string    `json:"asset_subclass"`
	Indexer      Indexer   `json:"indexer"`
	Rate         float64   `json:"annual_rate"`      // annual rate (PRE) or real rate (IPCA), in %
	PercentOf    float64   `json:"percent_of_index"` // e.g. 110 for 110% of CDI
	Basis        int       `json:"day_count_basis"`  // 0 means the 252 default
	PeriodicTax  bool      `json:"has_periodic_tax_event"`
	TaxRate      float64   `json:"withholding_tax_rate"` // % of gain withheld per event
	Maturity     date.Date `json:"maturity_date,omitzero"`

	// ManualValue, when set, is a user-entered mark that overrides any
	// computed valuation.
	ManualValue *float64 `json:"manual_value,omitempty"`
}

// DayCountBasis returns the configured basis, defaulting to 252.
func (c InstrumentConfig) DayCountBasis() int {
	if c.Basis <= 0 {
		return defaultBasis
	}
	return c.Basis
}

// IsTreasury reports whether the instrument is a Tesouro Direto bond, valued
// by published unit prices rather than by rate compounding.
func (c InstrumentConfig) IsTreasury() bool {
	sub := strings.ToLower(c.Subclass)
	if strings.Contains(sub, "tesouro") || strings.Contains(sub, "treasury") {
		return true
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(c.Name)), "tesouro")
}

// IsIndexLinked reports whether the instrument grows by compounding a
// reference rate (as opposed to market pricing or unit-price marks).
func (c InstrumentConfig) IsIndexLinked() bool {
	switch c.Indexer {
	case IndexerPre, IndexerCDI, IndexerSelic, IndexerIPCA:
		return true
	default:
		return false
	}
}

// HasMarketSymbol reports whether daily closes can be fetched for the
// instrument.
func (c InstrumentConfig) HasMarketSymbol() bool { return c.Symbol != "" }
