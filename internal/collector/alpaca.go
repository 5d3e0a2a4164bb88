package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"SwingScreener/internal/model"
)

// AlpacaFetcher implements Fetcher using Alpaca market data. It serves US
// tickers only.
type AlpacaFetcher struct {
	client *marketdata.Client
	now    func() time.Time
}

// NewAlpacaFetcher creates a fetcher authenticated with the given key pair.
func NewAlpacaFetcher(apiKey, apiSecret string) *AlpacaFetcher {
	return &AlpacaFetcher{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
		now: time.Now,
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

func (f *AlpacaFetcher) FetchDailyBars(ctx context.Context, ticker string, days int) ([]model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	end := f.now()
	bars, err := f.client.GetBars(alpacaSymbol(ticker), marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Start:      end.AddDate(0, 0, -days),
		End:        end,
		Adjustment: marketdata.All,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars %s: %w", ticker, err)
	}

	out := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		out = append(out, model.OHLCV{
			Time:   tradingDay(b.Timestamp),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: float64(b.Volume),
		})
	}
	return dedupeDays(out), nil
}

// alpacaSymbol converts a Yahoo-style class share ticker ("BRK-B") to Alpaca's form ("BRK.B").
func alpacaSymbol(ticker string) string {
	return strings.ReplaceAll(ticker, "-", ".")
}
