package carteira

import (
	"sync"

	"github.com/lfpereira/carteira/date"
)

// MemIndexRepository is an in-memory IndexRepository. It backs tests and
// cache-only runs where no database is configured.
type MemIndexRepository struct {
	mu     sync.Mutex
	series map[IndexSeries]*date.History[float64]
}

func NewMemIndexRepository() *MemIndexRepository {
	return &MemIndexRepository{series: make(map[IndexSeries]*date.History[float64])}
}

func (m *MemIndexRepository) Rates(series IndexSeries, r date.Range) (*date.History[float64], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := new(date.History[float64])
	if h := m.series[series]; h != nil {
		for day, rate := range h.Values() {
			if r.Contains(day) {
				out.Append(day, rate)
			}
		}
	}
	return out, nil
}

func (m *MemIndexRepository) Upsert(series IndexSeries, rates *date.History[float64]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.series[series]
	if h == nil {
		h = new(date.History[float64])
		m.series[series] = h
	}
	for day, rate := range rates.Values() {
		h.Append(day, rate)
	}
	return nil
}

// MemTreasuryRepository is an in-memory TreasuryRepository keyed by
// normalized bond label.
type MemTreasuryRepository struct {
	mu    sync.Mutex
	bonds map[string]*date.History[TreasuryMark]
}

func NewMemTreasuryRepository() *MemTreasuryRepository {
	return &MemTreasuryRepository{bonds: make(map[string]*date.History[TreasuryMark])}
}

func (m *MemTreasuryRepository) Marks(label string, r date.Range) (*date.History[TreasuryMark], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := new(date.History[TreasuryMark])
	if h := m.bonds[NormalizeTreasuryLabel(label)]; h != nil {
		for day, mark := range h.Values() {
			if r.Contains(day) {
				out.Append(day, mark)
			}
		}
	}
	return out, nil
}

func (m *MemTreasuryRepository) Upsert(label string, marks *date.History[TreasuryMark]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := NormalizeTreasuryLabel(label)
	h := m.bonds[key]
	if h == nil {
		h = new(date.History[TreasuryMark])
		m.bonds[key] = h
	}
	for day, mark := range marks.Values() {
		h.Append(day, mark)
	}
	return nil
}
