package carteira

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/lfpereira/carteira/date"
)

// BrapiBaseURL serves B3 daily quotes. Overridable for tests.
var BrapiBaseURL = "https://brapi.dev"

// FXBaseURL serves historical currency closes. Overridable for tests.
var FXBaseURL = "https://economia.awesomeapi.com.br"

const brapi_token_env = "BRAPI_TOKEN"

var brapiTokenFlag = flag.String("brapi-token", "", "brapi.dev API token to use for fetching B3 quotes.\n If missing it will read the environment variable \""+brapi_token_env+"\". You can get one at https://brapi.dev/")

func brapiToken() string {
	if *brapiTokenFlag == "" {
		*brapiTokenFlag = os.Getenv(brapi_token_env)
	}
	return *brapiTokenFlag
}

// BrapiProvider fetches daily closes for B3 symbols from brapi.dev and
// currency closes from AwesomeAPI. Both are free-tier services, so responses
// are cached and partial results are expected.
type BrapiProvider struct {
	client *http.Client
	token  string
}

func NewBrapiProvider() *BrapiProvider {
	return &BrapiProvider{client: cachedClient(defaultQuoteTTL), token: brapiToken()}
}

// brapiRange maps a lookback window onto the coarse ranges the API accepts.
func brapiRange(r date.Range) string {
	days := r.To.Sub(r.From)
	switch {
	case days <= 28:
		return "1mo"
	case days <= 85:
		return "3mo"
	case days <= 175:
		return "6mo"
	case days <= 360:
		return "1y"
	case days <= 720:
		return "2y"
	case days <= 1800:
		return "5y"
	}
	return "max"
}

// DailyCloses implements QuoteProvider for exchange-listed symbols.
func (p *BrapiProvider) DailyCloses(ctx context.Context, symbol string, r date.Range) (*date.History[float64], error) {
	addr := fmt.Sprintf("%s/api/quote/%s?range=%s&interval=1d", BrapiBaseURL, symbol, brapiRange(r))
	if p.token != "" {
		addr += "&token=" + p.token
	}

	var payload struct {
		Results []struct {
			HistoricalDataPrice []struct {
				Date  int64   `json:"date"`
				Close float64 `json:"close"`
			} `json:"historicalDataPrice"`
		} `json:"results"`
	}
	if err := jwget(ctx, p.client, addr, &payload); err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}
	if len(payload.Results) == 0 {
		return nil, fmt.Errorf("quote %s: empty result", symbol)
	}

	closes := new(date.History[float64])
	for _, bar := range payload.Results[0].HistoricalDataPrice {
		if bar.Close == 0 {
			continue
		}
		day := date.FromTime(time.Unix(bar.Date, 0).UTC())
		if r.Contains(day) {
			closes.Append(day, bar.Close)
		}
	}
	return closes, nil
}

// FXCloses implements QuoteProvider for currency pairs, e.g. ("USD", "BRL").
func (p *BrapiProvider) FXCloses(ctx context.Context, from, to string, r date.Range) (*date.History[float64], error) {
	days := r.To.Sub(r.From) + 1
	addr := fmt.Sprintf("%s/json/daily/%s-%s/%d", FXBaseURL, from, to, days)

	var payload []struct {
		Bid       string `json:"bid"`
		Timestamp string `json:"timestamp"`
	}
	if err := jwget(ctx, p.client, addr, &payload); err != nil {
		return nil, fmt.Errorf("fx %s-%s: %w", from, to, err)
	}

	closes := new(date.History[float64])
	for _, row := range payload {
		unix, err := strconv.ParseInt(row.Timestamp, 10, 64)
		if err != nil {
			continue
		}
		bid, err := strconv.ParseFloat(row.Bid, 64)
		if err != nil || bid == 0 {
			continue
		}
		day := date.FromTime(time.Unix(unix, 0).UTC())
		if r.Contains(day) {
			closes.Append(day, bid)
		}
	}
	return closes, nil
}
