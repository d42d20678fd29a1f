package carteira

import (
	"context"

	"github.com/google/uuid"
	"github.com/lfpereira/carteira/date"
)

// IndexSeries identifies a reference-rate series.
type IndexSeries string

const (
	SeriesCDI   IndexSeries = "CDI"
	SeriesSelic IndexSeries = "SELIC"
	SeriesIPCA  IndexSeries = "IPCA"
)

// Monthly reports whether the series is published per month rather than per
// business day. Monthly rates are keyed by the first day of their competence.
func (s IndexSeries) Monthly() bool { return s == SeriesIPCA }

// TreasuryMark is one day's published unit prices for a Treasury bond. Base
// is the mark-to-market price that values the stock of units; Purchase, when
// non-zero, is the buy-side price preferred for sizing a buy flow's implied
// quantity.
type TreasuryMark struct {
	Base     float64 `json:"base_price"`
	Purchase float64 `json:"purchase_price,omitempty"`
}

// IndexProvider fetches reference rates from an external source, typically
// the central bank. Implementations are treated as unreliable and
// rate-limited; callers tolerate empty or partial responses.
type IndexProvider interface {
	Rates(ctx context.Context, series IndexSeries, r date.Range) (*date.History[float64], error)
}

// IndexRepository is the append-only cache of reference rates. Upserts are
// keyed by (series, date), making concurrent refreshes idempotent.
type IndexRepository interface {
	Rates(series IndexSeries, r date.Range) (*date.History[float64], error)
	Upsert(series IndexSeries, rates *date.History[float64]) error
}

// TreasuryProvider fetches published unit prices for a Treasury bond label.
type TreasuryProvider interface {
	UnitPrices(ctx context.Context, label string, r date.Range) (*date.History[TreasuryMark], error)
}

// TreasuryRepository is the append-only cache of Treasury unit prices, keyed
// by normalized label and date.
type TreasuryRepository interface {
	Marks(label string, r date.Range) (*date.History[TreasuryMark], error)
	Upsert(label string, marks *date.History[TreasuryMark]) error
}

// QuoteProvider fetches daily closes for exchange-quoted symbols and for
// currency pairs.
type QuoteProvider interface {
	DailyCloses(ctx context.Context, symbol string, r date.Range) (*date.History[float64], error)
	FXCloses(ctx context.Context, from, to string, r date.Range) (*date.History[float64], error)
}

// CashFlowSource is the storage collaborator the engine reads from. Rows are
// immutable; the engine never writes through this interface.
type CashFlowSource interface {
	Flows(ctx context.Context, userID uuid.UUID) ([]CashFlowEvent, error)
	Configs(ctx context.Context, userID uuid.UUID) ([]InstrumentConfig, error)
}
