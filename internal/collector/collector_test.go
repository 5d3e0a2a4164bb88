package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"SwingScreener/internal/cache"
	"SwingScreener/internal/model"
	"SwingScreener/internal/strategy"
)

const chartJSON = `{"chart":{"result":[{"timestamp":[1741584600,1741671000,1741757400,1741757460],
"indicators":{"quote":[{"open":[10,null,12,12.5],"high":[11,12,13,13.5],"low":[9,10,11,11.5],
"close":[10.5,11.5,12.5,13],"volume":[1000,2000,null,4000]}]}}],"error":null}}`

func TestYahooFetcher(t *testing.T) {
	var gotPath, gotInterval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInterval = r.URL.Query().Get("interval")
		fmt.Fprint(w, chartJSON)
	}))
	defer srv.Close()

	f := &YahooFetcher{Client: srv.Client(), BaseURL: srv.URL, Now: time.Now}
	bars, err := f.FetchDailyBars(context.Background(), "RELIANCE.NS", 365)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotPath != "/v8/finance/chart/RELIANCE.NS" || gotInterval != "1d" {
		t.Errorf("unexpected request %s interval=%s", gotPath, gotInterval)
	}

	// Bar with a null open is skipped; the two bars on the last day collapse to the later one.
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d: %+v", len(bars), bars)
	}
	if bars[0].Close != 10.5 || bars[1].Close != 13 {
		t.Errorf("unexpected closes %.2f, %.2f", bars[0].Close, bars[1].Close)
	}
	if h, m, s := bars[1].Time.Clock(); h != 0 || m != 0 || s != 0 {
		t.Errorf("bar time should be midnight UTC, got %s", bars[1].Time)
	}
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	f := &YahooFetcher{Client: srv.Client(), BaseURL: srv.URL, Now: time.Now}
	if _, err := f.FetchDailyBars(context.Background(), "GONE", 365); err == nil || !strings.Contains(err.Error(), "delisted") {
		t.Errorf("expected api error, got %v", err)
	}
}

func TestCollector_CacheFirst(t *testing.T) {
	c, err := cache.NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer c.Close()

	mock := &MockFetcher{Price: 100}
	col := NewCollector(mock, c, 80, 50)
	inst := model.Instrument{Symbol: "TCS", Ticker: "TCS.NS"}

	for i := 0; i < 3; i++ {
		bars, err := col.Bars(context.Background(), inst)
		if err != nil {
			t.Fatalf("bars: %v", err)
		}
		if len(bars) != 80 {
			t.Fatalf("expected 80 bars, got %d", len(bars))
		}
	}
	if mock.Calls() != 1 {
		t.Errorf("expected one fetch, got %d", mock.Calls())
	}

	col.Now = func() time.Time { return time.Now().AddDate(0, 0, 1) }
	if _, err := col.Bars(context.Background(), inst); err != nil {
		t.Fatalf("bars: %v", err)
	}
	if mock.Calls() != 2 {
		t.Errorf("a new day should refetch, got %d fetches", mock.Calls())
	}
}

func TestCollector_Errors(t *testing.T) {
	boom := errors.New("boom")
	mock := &MockFetcher{
		Price: 100,
		Bars:  map[string][]model.OHLCV{"NEW.NS": generateMockBars(100, 20)},
		Err:   map[string]error{"DOWN.NS": boom},
	}
	col := NewCollector(mock, nil, 80, 50)

	_, err := col.Bars(context.Background(), model.Instrument{Symbol: "NEW", Ticker: "NEW.NS"})
	var short *model.InsufficientDataError
	if !errors.As(err, &short) || short.Have != 20 || short.Need != 50 {
		t.Errorf("expected InsufficientDataError 20/50, got %v", err)
	}

	_, err = col.Bars(context.Background(), model.Instrument{Symbol: "DOWN", Ticker: "DOWN.NS"})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped fetch error, got %v", err)
	}
}

func TestCollector_RecentListingReachesEvaluate(t *testing.T) {
	p := strategy.DefaultParams()
	mock := &MockFetcher{Bars: map[string][]model.OHLCV{"NEWCO.NS": generateMockBars(100, 60)}}
	col := NewCollector(mock, nil, HistoryWindow(365, p.WarmupDays), p.MinHistory)
	inst := model.Instrument{Symbol: "NEWCO", Ticker: "NEWCO.NS"}

	bars, err := col.Bars(context.Background(), inst)
	if err != nil {
		t.Fatalf("60 bars should pass the collector: %v", err)
	}
	cand, det, err := strategy.Evaluate(inst, bars, p)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if cand != nil || det.Reason != model.ReasonFilterFailed || det.Filters.PriceAbove200EMA {
		t.Errorf("expected filter_failed without EMA200, got reason=%q filters=%+v", det.Reason, det.Filters)
	}
}

func TestHistoryWindow(t *testing.T) {
	tests := []struct {
		history, warmup, want int
	}{
		{365, 220, 365},
		{200, 220, 322},
		{0, 50, 84},
	}
	for _, tt := range tests {
		if got := HistoryWindow(tt.history, tt.warmup); got != tt.want {
			t.Errorf("HistoryWindow(%d, %d) = %d, want %d", tt.history, tt.warmup, got, tt.want)
		}
	}
}

const nseCSV = "Company Name,Industry,Symbol,Series,ISIN Code\n" +
	"Reliance Industries Ltd.,Oil Gas & Consumable Fuels,RELIANCE,EQ,INE002A01018\n" +
	"Tata Consultancy Services Ltd.,Information Technology,TCS,EQ,INE467B01029\n" +
	",,,,\n"

func TestUniverseLoader_NSE(t *testing.T) {
	fail := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			http.Error(w, "blocked", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, nseCSV)
	}))
	defer srv.Close()

	dir := t.TempDir()
	u := &UniverseLoader{Client: srv.Client(), DataDir: dir, URLs: map[string]string{"nifty_50": srv.URL}}

	// Two rows is below the expected count, and there is no fallback yet.
	if _, err := u.Load(context.Background(), "nifty_50"); err == nil {
		t.Fatal("expected error without a fallback file")
	}

	if err := os.WriteFile(filepath.Join(dir, "nifty50_fallback.csv"), []byte(nseCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	fail = true
	insts, err := u.Load(context.Background(), "nifty_50")
	if err != nil {
		t.Fatalf("load from fallback: %v", err)
	}
	if len(insts) != 2 {
		t.Fatalf("expected 2 instruments, got %d", len(insts))
	}
	want := model.Instrument{Symbol: "RELIANCE", Company: "Reliance Industries Ltd.", Industry: "Oil Gas & Consumable Fuels", Ticker: "RELIANCE.NS"}
	if insts[0] != want {
		t.Errorf("expected %+v, got %+v", want, insts[0])
	}
}

func TestUniverseLoader_SavesFallback(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Company Name,Industry,Symbol,Series,ISIN Code\n")
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&sb, "Company %d,Industry,SYM%d,EQ,ISIN%d\n", i, i, i)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sb.String())
	}))
	defer srv.Close()

	dir := t.TempDir()
	u := &UniverseLoader{Client: srv.Client(), DataDir: dir, URLs: map[string]string{"nifty_50": srv.URL}}
	insts, err := u.Load(context.Background(), "nifty_50")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(insts) != 50 {
		t.Errorf("expected 50 instruments, got %d", len(insts))
	}
	if _, err := os.Stat(filepath.Join(dir, "nifty50_fallback.csv")); err != nil {
		t.Errorf("expected fallback file to be saved: %v", err)
	}
}

const wikiHTML = `<html><body>
<table class="infobox"><tr><th>Exchange</th><td>NYSE</td></tr></table>
<table class="wikitable" id="constituents">
<tr><th>Symbol</th><th>Security</th><th>GICS Sector</th><th>Date added</th></tr>
<tr><td><a href="#">MMM</a></td><td><a href="#">3M</a><sup>[1]</sup></td><td>Industrials</td><td>1957-03-04</td></tr>
<tr><td><a href="#">BRK.B</a></td><td>Berkshire Hathaway</td><td>Financials</td><td>1976-06-01</td></tr>
</table></body></html>`

func TestUniverseLoader_Wikipedia(t *testing.T) {
	var agent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		fmt.Fprint(w, wikiHTML)
	}))
	defer srv.Close()

	u := &UniverseLoader{Client: srv.Client(), URLs: map[string]string{"sp_500": srv.URL}}
	insts, err := u.Load(context.Background(), "sp_500")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if agent != wikiAgent {
		t.Errorf("expected user agent %q, got %q", wikiAgent, agent)
	}
	if len(insts) != 2 {
		t.Fatalf("expected 2 instruments, got %d", len(insts))
	}
	if insts[0].Symbol != "MMM" || insts[0].Company != "3M" || insts[0].Industry != "Industrials" {
		t.Errorf("unexpected first instrument %+v", insts[0])
	}
	if insts[1].Symbol != "BRK-B" || insts[1].Ticker != "BRK-B" {
		t.Errorf("expected BRK-B, got %+v", insts[1])
	}
}

func TestUniverseLoader_UnknownMarket(t *testing.T) {
	u := &UniverseLoader{}
	if _, err := u.Load(context.Background(), "ftse_100"); !errors.Is(err, ErrUnknownMarket) {
		t.Errorf("expected ErrUnknownMarket, got %v", err)
	}
}

func TestMarkets(t *testing.T) {
	if !IsUSMarket("sp_500") || IsUSMarket("nifty_50") {
		t.Error("unexpected market currency classification")
	}
	if len(Markets()) != 7 {
		t.Errorf("expected 7 markets, got %v", Markets())
	}
	if alpacaSymbol("BRK-B") != "BRK.B" {
		t.Error("expected class share dash converted to dot")
	}
}
