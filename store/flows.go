package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lfpereira/carteira"
	"github.com/lfpereira/carteira/date"
)

// FlowStore reads a user's cash-flow history and instrument configurations.
// It implements carteira.CashFlowSource.
type FlowStore struct {
	db *sql.DB
}

func NewFlowStore(db *sql.DB) *FlowStore { return &FlowStore{db: db} }

// Flows returns every recorded event for the user, oldest first.
func (s *FlowStore) Flows(ctx context.Context, userID uuid.UUID) ([]carteira.CashFlowEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT instrument_id, event_date, kind, quantity_delta, cash_amount, unit_price, currency
		FROM cash_flow_events
		WHERE user_id = $1
		ORDER BY event_date, created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flows []carteira.CashFlowEvent
	for rows.Next() {
		var (
			e        carteira.CashFlowEvent
			day      time.Time
			kind     string
			qty      float64
			cash     float64
			price    float64
			currency string
		)
		if err := rows.Scan(&e.InstrumentID, &day, &kind, &qty, &cash, &price, &currency); err != nil {
			return nil, err
		}
		e.Date = date.FromTime(day)
		e.Kind = carteira.FlowKind(kind)
		e.QuantityDelta = carteira.Q(qty)
		e.CashAmount = carteira.M(cash, currency)
		e.UnitPrice = carteira.M(price, currency)
		flows = append(flows, e)
	}
	return flows, rows.Err()
}

// Configs returns the active valuation configuration of each instrument the
// user holds.
func (s *FlowStore) Configs(ctx context.Context, userID uuid.UUID) ([]carteira.InstrumentConfig, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT instrument_id, name, symbol, currency, asset_subclass, indexer,
		       annual_rate, percent_of_index, day_count_basis,
		       has_periodic_tax_event, withholding_tax_rate, maturity_date, manual_value
		FROM instrument_configs
		WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []carteira.InstrumentConfig
	for rows.Next() {
		var (
			c        carteira.InstrumentConfig
			indexer  string
			maturity sql.NullTime
			manual   sql.NullFloat64
		)
		if err := rows.Scan(&c.InstrumentID, &c.Name, &c.Symbol, &c.Currency, &c.Subclass, &indexer,
			&c.Rate, &c.PercentOf, &c.Basis, &c.PeriodicTax, &c.TaxRate, &maturity, &manual); err != nil {
			return nil, err
		}
		c.Indexer = carteira.Indexer(indexer)
		if maturity.Valid {
			c.Maturity = date.FromTime(maturity.Time)
		}
		if manual.Valid {
			v := manual.Float64
			c.ManualValue = &v
		}
		configs = append(configs, c)
	}
	return configs, rows.Err()
}
