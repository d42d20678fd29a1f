package carteira

import (
	"context"
	"net/http"

	"github.com/lfpereira/carteira/date"
)

// TesouroBaseURL serves the Tesouro Direto bond list. Overridable for tests.
var TesouroBaseURL = "https://www.tesourodireto.com.br"

const tesouroBondsPath = "/json/br/com/b3/tesourodireto/service/api/treasurybondsinfo.json"

// TesouroProviderHTTP reads the official Tesouro Direto trading list. The
// endpoint only exposes the current day's unit prices, so daily syncing is
// what accumulates a usable mark history.
type TesouroProviderHTTP struct {
	client *http.Client
}

func NewTesouroProvider() *TesouroProviderHTTP {
	return &TesouroProviderHTTP{client: cachedClient(defaultQuoteTTL)}
}

type tesouroResponse struct {
	Response struct {
		TrsrBdTradgList []struct {
			TrsrBd struct {
				Nm             string  `json:"nm"`
				UntrInvstmtVal float64 `json:"untrInvstmtVal"`
				UntrRedVal     float64 `json:"untrRedVal"`
			} `json:"TrsrBd"`
		} `json:"TrsrBdTradgList"`
	} `json:"response"`
}

// UnitPrices implements TreasuryProvider. Bonds are matched by normalized
// label, so "TESOURO RENDA+ APOSENTADORIA EXTRA 2065" from the API meets
// "Tesouro Renda+ 2065" from a brokerage statement.
func (p *TesouroProviderHTTP) UnitPrices(ctx context.Context, label string, r date.Range) (*date.History[TreasuryMark], error) {
	var payload tesouroResponse
	if err := jwget(ctx, p.client, TesouroBaseURL+tesouroBondsPath, &payload); err != nil {
		return nil, err
	}

	want := NormalizeTreasuryLabel(label)
	marks := new(date.History[TreasuryMark])
	for _, row := range payload.Response.TrsrBdTradgList {
		bd := row.TrsrBd
		if NormalizeTreasuryLabel(bd.Nm) != want {
			continue
		}
		mark := TreasuryMark{Base: bd.UntrRedVal, Purchase: bd.UntrInvstmtVal}
		if mark.Base == 0 && mark.Purchase == 0 {
			continue
		}
		marks.Append(date.Today(), mark)
	}
	return marks, nil
}
