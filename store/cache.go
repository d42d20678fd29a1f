package store

import (
	"database/sql"
	"time"

	"github.com/lfpereira/carteira"
	"github.com/lfpereira/carteira/date"
)

// IndexStore is the Postgres cache of reference rates. It implements
// carteira.IndexRepository.
type IndexStore struct {
	db *sql.DB
}

func NewIndexStore(db *sql.DB) *IndexStore { return &IndexStore{db: db} }

func (s *IndexStore) Rates(series carteira.IndexSeries, r date.Range) (*date.History[float64], error) {
	rows, err := s.db.Query(`
		SELECT day, rate FROM index_rates
		WHERE series = $1 AND day BETWEEN $2 AND $3
		ORDER BY day`, string(series), r.From.Format(date.Format), r.To.Format(date.Format))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rates := new(date.History[float64])
	for rows.Next() {
		var (
			day  time.Time
			rate float64
		)
		if err := rows.Scan(&day, &rate); err != nil {
			return nil, err
		}
		rates.Append(date.FromTime(day), rate)
	}
	return rates, rows.Err()
}

func (s *IndexStore) Upsert(series carteira.IndexSeries, rates *date.History[float64]) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO index_rates (series, day, rate) VALUES ($1, $2, $3)
		ON CONFLICT (series, day) DO UPDATE SET rate = EXCLUDED.rate`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for day, rate := range rates.Values() {
		if _, err := stmt.Exec(string(series), day.Format(date.Format), rate); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// TreasuryStore is the Postgres cache of Tesouro Direto unit prices, keyed by
// normalized bond label. It implements carteira.TreasuryRepository.
type TreasuryStore struct {
	db *sql.DB
}

func NewTreasuryStore(db *sql.DB) *TreasuryStore { return &TreasuryStore{db: db} }

func (s *TreasuryStore) Marks(label string, r date.Range) (*date.History[carteira.TreasuryMark], error) {
	rows, err := s.db.Query(`
		SELECT day, base_price, purchase_price FROM treasury_marks
		WHERE label = $1 AND day BETWEEN $2 AND $3
		ORDER BY day`, carteira.NormalizeTreasuryLabel(label), r.From.Format(date.Format), r.To.Format(date.Format))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	marks := new(date.History[carteira.TreasuryMark])
	for rows.Next() {
		var (
			day  time.Time
			mark carteira.TreasuryMark
		)
		if err := rows.Scan(&day, &mark.Base, &mark.Purchase); err != nil {
			return nil, err
		}
		marks.Append(date.FromTime(day), mark)
	}
	return marks, rows.Err()
}

func (s *TreasuryStore) Upsert(label string, marks *date.History[carteira.TreasuryMark]) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO treasury_marks (label, day, base_price, purchase_price) VALUES ($1, $2, $3, $4)
		ON CONFLICT (label, day) DO UPDATE SET base_price = EXCLUDED.base_price, purchase_price = EXCLUDED.purchase_price`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	key := carteira.NormalizeTreasuryLabel(label)
	for day, mark := range marks.Values() {
		if _, err := stmt.Exec(key, day.Format(date.Format), mark.Base, mark.Purchase); err != nil {
			return err
		}
	}
	return tx.Commit()
}
