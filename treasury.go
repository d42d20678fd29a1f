package carteira

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/lfpereira/carteira/date"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// treasuryPrefix is the product family name every canonical label starts with.
const treasuryPrefix = "Tesouro"

// treasuryFamilies maps a lowercased family token, with or without its
// trailing "+", to its canonical spelling. User entries and provider payloads
// disagree on the "+", so both variants collapse to one key.
var treasuryFamilies = map[string]string{
	"prefixado": "Prefixado",
	"selic":     "Selic",
	"ipca":      "IPCA+",
	"ipca+":     "IPCA+",
	"renda":     "Renda+",
	"renda+":    "Renda+",
	"educa":     "Educa+",
	"educa+":    "Educa+",
	"igpm":      "IGP-M+",
	"igpm+":     "IGP-M+",
	"igp-m":     "IGP-M+",
	"igp-m+":    "IGP-M+",
}

// lowercase connective words kept as-is inside a label.
var labelStopWords = map[string]bool{"com": true, "de": true, "do": true, "e": true}

// Marketing filler the official bond list carries but statements omit.
// "Tesouro Renda+ Aposentadoria Extra 2065" and "Tesouro Renda+ 2065" are the
// same bond. Connectives like "com juros semestrais" are NOT filler; they
// distinguish coupon bonds from their zero-coupon siblings.
var labelFillerWords = map[string]bool{"aposentadoria": true, "extra": true}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var titleCaser = cases.Title(language.BrazilianPortuguese)

// NormalizeTreasuryLabel maps the many spellings of a Treasury bond name to
// one canonical key, e.g. "TESOURO  renda + 2065" and "Renda 2065" both
// become "Tesouro Renda+ 2065". The same function serves the write path
// (caching marks) and the read path (valuation), so a bond is never stored
// under two keys.
func NormalizeTreasuryLabel(label string) string {
	s := label
	if stripped, _, err := transform.String(accentStripper, label); err == nil {
		s = stripped
	}
	s = strings.ToLower(s)
	// A detached "+" belongs to the preceding token.
	s = strings.ReplaceAll(s, " +", "+")

	var out []string
	for i, tok := range strings.Fields(s) {
		if i == 0 && tok == "tesouro" {
			continue
		}
		if labelFillerWords[tok] {
			continue
		}
		switch {
		case len(out) == 0 && treasuryFamilies[tok] != "":
			out = append(out, treasuryFamilies[tok])
		case labelStopWords[tok]:
			out = append(out, tok)
		default:
			out = append(out, titleCaser.String(tok))
		}
	}
	if len(out) == 0 {
		return treasuryPrefix
	}
	return treasuryPrefix + " " + strings.Join(out, " ")
}

// treasuryEpoch bounds the memoized read window; no Tesouro Direto mark
// predates the program's launch.
var treasuryEpoch = date.New(2002, 1, 1)

// TreasuryService maintains per-bond daily unit-price series and resolves
// which price to use for a given cash flow. Series are keyed by normalized
// label and backfilled no earlier than the instrument's first buy, to avoid
// importing marks that predate ownership.
type TreasuryService struct {
	repo     TreasuryRepository
	provider TreasuryProvider
	throttle time.Duration
	now      func() time.Time

	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	lastSync map[string]time.Time
	memo     map[string]*date.History[TreasuryMark]
}

// NewTreasuryService builds a TreasuryService over a mark cache and an
// external provider. The provider may be nil for cache-only operation.
func NewTreasuryService(repo TreasuryRepository, provider TreasuryProvider) *TreasuryService {
	return &TreasuryService{
		repo:     repo,
		provider: provider,
		throttle: defaultThrottle,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
		lastSync: make(map[string]time.Time),
		memo:     make(map[string]*date.History[TreasuryMark]),
	}
}

func (s *TreasuryService) labelLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = new(sync.Mutex)
		s.locks[key] = l
	}
	return l
}

// EnsureUnitPrices backfills the unit-price series for a bond between its
// first buy date and end. Like index syncs it is throttled, serialized per
// label, and fail-soft: a fetch error leaves the cache as it was.
func (s *TreasuryService) EnsureUnitPrices(ctx context.Context, label string, firstBuy, end date.Date) error {
	key := NormalizeTreasuryLabel(label)
	lock := s.labelLock(key)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	last := s.lastSync[key]
	s.mu.Unlock()
	if !last.IsZero() && s.now().Sub(last) < s.throttle {
		return nil
	}

	if firstBuy.IsZero() || s.provider == nil {
		return nil
	}
	fetched, err := s.provider.UnitPrices(ctx, key, date.NewRange(firstBuy, end))
	if err != nil {
		log.Printf("treasury %s: fetch failed, keeping cached marks: %v", key, err)
		return nil
	}
	if fetched.Len() == 0 {
		return nil
	}
	// Drop anything the provider returned from before ownership.
	trimmed := new(date.History[TreasuryMark])
	for on, mark := range fetched.Values() {
		if on.Before(firstBuy) {
			continue
		}
		trimmed.Append(on, mark)
	}
	if trimmed.Len() == 0 {
		return nil
	}
	if err := s.repo.Upsert(key, trimmed); err != nil {
		return err
	}
	s.mu.Lock()
	s.lastSync[key] = s.now()
	delete(s.memo, key)
	s.mu.Unlock()
	return nil
}

// marks returns the memoized full series for a normalized label.
func (s *TreasuryService) marks(key string) *date.History[TreasuryMark] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.memo[key]; ok {
		return h
	}
	h, err := s.repo.Marks(key, date.NewRange(treasuryEpoch, date.Today().Add(1)))
	if err != nil {
		log.Printf("treasury %s: read failed: %v", key, err)
		h = new(date.History[TreasuryMark])
	}
	s.memo[key] = h
	return h
}

// HasMarks reports whether any unit price is cached for the bond.
func (s *TreasuryService) HasMarks(label string) bool {
	return s.marks(NormalizeTreasuryLabel(label)).Len() > 0
}

// MarkDays iterates the dates carrying a unit price for the bond.
func (s *TreasuryService) MarkDays(label string) []date.Date {
	var days []date.Date
	for d := range s.marks(NormalizeTreasuryLabel(label)).Days() {
		days = append(days, d)
	}
	return days
}

// PriceOnOrBefore returns the latest unit price at or before day, falling
// back to the nearest one after it when the series starts later. When
// preferPurchase is set and the mark carries a purchase price, that one is
// returned; this sizes a buy flow's implied quantity.
func (s *TreasuryService) PriceOnOrBefore(label string, day date.Date, preferPurchase bool) (float64, bool) {
	h := s.marks(NormalizeTreasuryLabel(label))
	mark, ok := h.ValueAsOf(day)
	if !ok {
		mark, ok = h.ValueAtOrAfter(day)
	}
	if !ok {
		return 0, false
	}
	if preferPurchase && mark.Purchase > 0 {
		return mark.Purchase, true
	}
	if mark.Base > 0 {
		return mark.Base, true
	}
	return 0, false
}
