package carteira

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/lfpereira/carteira/date"
)

// BCBBaseURL is the Banco Central do Brasil SGS endpoint. Overridable for
// tests.
var BCBBaseURL = "https://api.bcb.gov.br"

// SGS series codes: CDI and SELIC are daily rates, IPCA a monthly one.
var bcbSeriesCodes = map[IndexSeries]int{
	SeriesCDI:   12,
	SeriesSelic: 11,
	SeriesIPCA:  433,
}

const bcbDateFormat = "02/01/2006"

// BCBProvider fetches reference rates from the central bank's open SGS API.
// Responses are cached for a few minutes, so one report render hits the
// network at most once per series.
type BCBProvider struct {
	client *http.Client
}

func NewBCBProvider() *BCBProvider {
	return &BCBProvider{client: cachedClient(defaultQuoteTTL)}
}

// Rates implements IndexProvider. SGS rows carry the rate as a string
// percentage; rows that fail to parse are skipped rather than failing the
// whole series.
func (p *BCBProvider) Rates(ctx context.Context, series IndexSeries, r date.Range) (*date.History[float64], error) {
	code, ok := bcbSeriesCodes[series]
	if !ok {
		return nil, fmt.Errorf("no SGS code for index series %q", series)
	}
	addr := fmt.Sprintf("%s/dados/serie/bcdata.sgs.%d/dados?formato=json&dataInicial=%s&dataFinal=%s",
		BCBBaseURL, code, r.From.Format(bcbDateFormat), r.To.Format(bcbDateFormat))

	var payload []struct {
		Data  string `json:"data"`
		Valor string `json:"valor"`
	}
	if err := jwget(ctx, p.client, addr, &payload); err != nil {
		return nil, fmt.Errorf("sgs %d: %w", code, err)
	}

	rates := new(date.History[float64])
	for _, row := range payload {
		t, err := time.Parse(bcbDateFormat, row.Data)
		if err != nil {
			continue
		}
		rate, err := strconv.ParseFloat(row.Valor, 64)
		if err != nil {
			continue
		}
		rates.Append(date.FromTime(t), rate)
	}
	return rates, nil
}
