package carteira

import (
	"context"
	"testing"
	"time"

	"github.com/lfpereira/carteira/date"
)

func TestNormalizeTreasuryLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Tesouro Selic 2029", "Tesouro Selic 2029"},
		{"TESOURO SELIC 2029", "Tesouro Selic 2029"},
		{"tesouro  selic   2029", "Tesouro Selic 2029"},
		{"Tesouro Prefixado 2032", "Tesouro Prefixado 2032"},
		{"Tesouro Prefixado com Juros Semestrais 2035", "Tesouro Prefixado com Juros Semestrais 2035"},
		{"Tesouro IPCA+ 2045", "Tesouro IPCA+ 2045"},
		{"Tesouro IPCA + 2045", "Tesouro IPCA+ 2045"},
		{"Tesouro ipca 2045", "Tesouro IPCA+ 2045"},
		{"TESOURO IPCA+ COM JUROS SEMESTRAIS 2040", "Tesouro IPCA+ com Juros Semestrais 2040"},
		{"Tesouro Renda+ 2065", "Tesouro Renda+ 2065"},
		{"TESOURO RENDA+ APOSENTADORIA EXTRA 2065", "Tesouro Renda+ 2065"},
		{"Renda 2065", "Tesouro Renda+ 2065"},
		{"Tesouro Educa+ 2038", "Tesouro Educa+ 2038"},
		{"tesouro educa 2038", "Tesouro Educa+ 2038"},
		{"Tesouro Prefixado 2032 é", "Tesouro Prefixado 2032 e"},
	}
	for _, tc := range tests {
		if got := NormalizeTreasuryLabel(tc.in); got != tc.want {
			t.Errorf("NormalizeTreasuryLabel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeTreasuryLabelIsIdempotent(t *testing.T) {
	labels := []string{
		"TESOURO RENDA+ APOSENTADORIA EXTRA 2065",
		"Tesouro IPCA + 2045",
		"tesouro prefixado com juros semestrais 2035",
	}
	for _, in := range labels {
		once := NormalizeTreasuryLabel(in)
		if twice := NormalizeTreasuryLabel(once); twice != once {
			t.Errorf("normalize(normalize(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func seedMarks(t *testing.T, repo TreasuryRepository, label string, marks *date.History[TreasuryMark]) {
	t.Helper()
	if err := repo.Upsert(label, marks); err != nil {
		t.Fatalf("seeding marks: %v", err)
	}
}

func TestPriceOnOrBefore(t *testing.T) {
	repo := NewMemTreasuryRepository()
	seedMarks(t, repo, "Tesouro Selic 2029", new(date.History[TreasuryMark]).
		Append(date.New(2025, time.June, 2), TreasuryMark{Base: 98, Purchase: 100}).
		Append(date.New(2025, time.June, 10), TreasuryMark{Base: 99}))
	s := NewTreasuryService(repo, nil)

	// Exact day, base price.
	if p, ok := s.PriceOnOrBefore("Tesouro Selic 2029", date.New(2025, time.June, 2), false); !ok || p != 98 {
		t.Errorf("base price = %v/%v, want 98", p, ok)
	}
	// Exact day, purchase preferred.
	if p, ok := s.PriceOnOrBefore("tesouro selic 2029", date.New(2025, time.June, 2), true); !ok || p != 100 {
		t.Errorf("purchase price = %v/%v, want 100", p, ok)
	}
	// Purchase preferred but absent: base.
	if p, ok := s.PriceOnOrBefore("Tesouro Selic 2029", date.New(2025, time.June, 10), true); !ok || p != 99 {
		t.Errorf("fallback to base = %v/%v, want 99", p, ok)
	}
	// On-or-before between marks.
	if p, ok := s.PriceOnOrBefore("Tesouro Selic 2029", date.New(2025, time.June, 6), false); !ok || p != 98 {
		t.Errorf("as-of price = %v/%v, want 98", p, ok)
	}
	// Before the series starts: nearest after.
	if p, ok := s.PriceOnOrBefore("Tesouro Selic 2029", date.New(2025, time.May, 1), false); !ok || p != 98 {
		t.Errorf("at-or-after fallback = %v/%v, want 98", p, ok)
	}
	// Unknown bond.
	if _, ok := s.PriceOnOrBefore("Tesouro IPCA+ 2045", date.New(2025, time.June, 2), false); ok {
		t.Error("price found for a bond with no marks")
	}
}

func TestEnsureUnitPricesTrimsBeforeFirstBuy(t *testing.T) {
	repo := NewMemTreasuryRepository()
	provider := &fakeTreasuryProvider{marks: new(date.History[TreasuryMark]).
		Append(date.New(2025, time.May, 5), TreasuryMark{Base: 95}).
		Append(date.New(2025, time.June, 5), TreasuryMark{Base: 97}).
		Append(date.New(2025, time.June, 20), TreasuryMark{Base: 98})}
	s := NewTreasuryService(repo, provider)

	firstBuy := date.New(2025, time.June, 1)
	if err := s.EnsureUnitPrices(context.Background(), "Tesouro Selic 2029", firstBuy, date.New(2025, time.June, 30)); err != nil {
		t.Fatal(err)
	}

	cached, err := repo.Marks("Tesouro Selic 2029", date.NewRange(date.New(2025, time.January, 1), date.New(2025, time.December, 31)))
	if err != nil {
		t.Fatal(err)
	}
	if cached.Len() != 2 {
		t.Fatalf("cached %d marks, want 2 (pre-ownership marks dropped)", cached.Len())
	}
	first, _ := cached.First()
	if first.Before(firstBuy) {
		t.Errorf("mark cached from %s, before first buy %s", first, firstBuy)
	}
}

func TestEnsureUnitPricesThrottles(t *testing.T) {
	provider := &fakeTreasuryProvider{marks: new(date.History[TreasuryMark]).
		Append(date.New(2025, time.June, 5), TreasuryMark{Base: 97})}
	s := NewTreasuryService(NewMemTreasuryRepository(), provider)

	ctx := context.Background()
	firstBuy, end := date.New(2025, time.June, 1), date.New(2025, time.June, 30)
	if err := s.EnsureUnitPrices(ctx, "Tesouro Selic 2029", firstBuy, end); err != nil {
		t.Fatal(err)
	}
	// Same bond under a different spelling is still the same throttle key.
	if err := s.EnsureUnitPrices(ctx, "TESOURO SELIC 2029", firstBuy, end); err != nil {
		t.Fatal(err)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times within the throttle window, want 1", provider.calls)
	}
}
