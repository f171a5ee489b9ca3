package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/daszybak/marketscan/internal/polymarket/clob"
	"github.com/daszybak/marketscan/internal/polymarket/data"
	"github.com/daszybak/marketscan/internal/polymarket/gamma"
	"github.com/daszybak/marketscan/pkg/httpclient"
)

var errTransport = fmt.Errorf("connection refused: %w", httpclient.ErrTransport)

type fakeMarketData struct {
	pages  []*clob.SimplifiedMarketPage
	quotes clob.PriceQuotes
	book   clob.BookResult

	failOn string

	listParams   gamma.ListMarketsParams
	priceIDs     []string
	bookTokens   []string
	tradeMarkets []string
	historyIDs   []string
}

func (f *fakeMarketData) fail(op string) error {
	if f.failOn == op {
		return errTransport
	}
	return nil
}

func (f *fakeMarketData) ListMarkets(_ context.Context, params gamma.ListMarketsParams) (*gamma.MarketList, error) {
	f.listParams = params
	if err := f.fail("list"); err != nil {
		return nil, err
	}
	var markets []*gamma.Market
	body := `[{"id":"1","question":"Q1","conditionId":"M1","volume24hr":"10","liquidity":"5",
		"outcomes":["Yes","No"],"outcomePrices":["0.5","0.5"]}]`
	if err := json.Unmarshal([]byte(body), &markets); err != nil {
		return nil, err
	}
	return &gamma.MarketList{Markets: markets}, nil
}

func (f *fakeMarketData) GetSimplifiedMarkets(_ context.Context, _ string) (*clob.SimplifiedMarketPage, error) {
	if len(f.pages) == 0 {
		return &clob.SimplifiedMarketPage{}, nil
	}
	return f.pages[0], nil
}

func (f *fakeMarketData) SimplifiedPages(_ context.Context, maxPages int) ([]*clob.SimplifiedMarketPage, error) {
	if err := f.fail("pages"); err != nil {
		return nil, err
	}
	return f.pages[:min(maxPages, len(f.pages))], nil
}

func (f *fakeMarketData) GetOrderBook(_ context.Context, tokenID string) (clob.BookResult, error) {
	f.bookTokens = append(f.bookTokens, tokenID)
	if err := f.fail("book"); err != nil {
		return clob.BookResult{}, err
	}
	res := f.book
	res.TokenID = tokenID
	return res, nil
}

func (f *fakeMarketData) GetBestPrices(_ context.Context, tokenIDs []string, _ clob.Side, _ int) (clob.PriceQuotes, error) {
	f.priceIDs = append(f.priceIDs, tokenIDs...)
	if err := f.fail("prices"); err != nil {
		return nil, err
	}
	return f.quotes, nil
}

func (f *fakeMarketData) GetTrades(_ context.Context, conditionID string, _ int) (*data.TradeList, error) {
	f.tradeMarkets = append(f.tradeMarkets, conditionID)
	if err := f.fail("trades"); err != nil {
		return nil, err
	}
	return &data.TradeList{}, nil
}

func (f *fakeMarketData) GetPriceHistory(_ context.Context, tokenID, _ string) ([]clob.HistoryPoint, error) {
	f.historyIDs = append(f.historyIDs, tokenID)
	if err := f.fail("history"); err != nil {
		return nil, err
	}
	return []clob.HistoryPoint{{T: 1700000000, P: 0.4}}, nil
}

func (f *fakeMarketData) Close() error {
	return nil
}

func page(t *testing.T, body string) *clob.SimplifiedMarketPage {
	t.Helper()
	var p clob.SimplifiedMarketPage
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatal(err)
	}
	return &p
}

func newFake(t *testing.T) *fakeMarketData {
	return &fakeMarketData{
		pages: []*clob.SimplifiedMarketPage{
			page(t, `{"data":[
				{"condition_id":"M1","active":true,"closed":false,"tokens":[{"token_id":"T1","outcome":"Yes"},{"token_id":"T2","outcome":"No"}]},
				{"condition_id":"M2","active":true,"closed":true,"tokens":[{"token_id":"T3"}]},
				{"condition_id":"M3","active":true,"closed":false,"tokens":[{"token_id":"T4","outcome":"Up"},{"token_id":"T5","outcome":"Down"}]},
				{"condition_id":"M4","active":true,"closed":false,"tokens":[{"token_id":"T6","outcome":"Yes"}]}
			],"next_cursor":"MTA="}`),
			page(t, `{"data":[{"condition_id":"M9","tokens":[{"token_id":"T9"}]}],"next_cursor":"LTE="}`),
		},
		quotes: clob.PriceQuotes{
			"T1": {clob.Buy: "0.45"},
			"T2": {clob.Buy: "0.52"},
			"T4": {clob.Buy: "0.60"},
			"T5": {clob.Buy: "0.45"},
		},
		book: clob.BookResult{Status: clob.BookNotFound},
	}
}

type sleepRecorder struct {
	calls []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return nil
}

func testConfig(t *testing.T) Config {
	cfg := DefaultConfig()
	cfg.DumpPath = filepath.Join(t.TempDir(), "markets.json")
	cfg.HistoryMarkets = 2
	return cfg
}

func newScanner(md *fakeMarketData, cfg Config, out *bytes.Buffer) (*Scanner, *sleepRecorder) {
	s := New(md, cfg, out, slog.New(slog.DiscardHandler))
	rec := &sleepRecorder{}
	s.sleep = rec.sleep
	return s, rec
}

func TestRun(t *testing.T) {
	md := newFake(t)
	cfg := testConfig(t)
	var out bytes.Buffer
	s, rec := newScanner(md, cfg, &out)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if md.listParams.Closed == nil || *md.listParams.Closed || md.listParams.Active == nil || !*md.listParams.Active {
		t.Errorf("discovery params = %+v, want closed=false active=true", md.listParams)
	}
	if md.listParams.Limit != cfg.DiscoveryLimit || md.listParams.Order != "volume24hr" {
		t.Errorf("discovery params = %+v", md.listParams)
	}

	if !slices.Equal(md.bookTokens, []string{"T1"}) {
		t.Errorf("book requested for %v, want [T1]", md.bookTokens)
	}
	if !slices.Equal(md.tradeMarkets, []string{"M1"}) {
		t.Errorf("trades requested for %v, want [M1]", md.tradeMarkets)
	}
	// Only the first page feeds the aggregation and closed markets are dropped.
	if want := []string{"T1", "T2", "T4", "T5", "T6"}; !slices.Equal(md.priceIDs, want) {
		t.Errorf("prices requested for %v, want %v", md.priceIDs, want)
	}
	if want := []string{"T1", "T4"}; !slices.Equal(md.historyIDs, want) {
		t.Errorf("history requested for %v, want %v", md.historyIDs, want)
	}
	if len(rec.calls) != 1 || rec.calls[0] != cfg.HistoryDelay {
		t.Errorf("sleeps = %v, want one of %v", rec.calls, cfg.HistoryDelay)
	}

	text := out.String()
	for _, want := range []string{
		"TOP MARKETS",
		"Market: Q1",
		"Total markets: 1",
		"Book not found for token T1",
		"No trades",
		"SUM OF BEST ASKS BY MARKET",
		"M1 Yes: 1 points",
		"M3 Up: 1 points",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q\n%s", want, text)
		}
	}
	// M1 (0.97) ranks before M3 (1.05); M4 has no quote and is not shown.
	m1 := strings.Index(text, "M1    ")
	m3 := strings.Index(text, "M3    ")
	if m1 < 0 || m3 < 0 || m1 > m3 {
		t.Errorf("sum table order wrong\n%s", text)
	}

	b, err := os.ReadFile(cfg.DumpPath)
	if err != nil {
		t.Fatalf("dump not written: %v", err)
	}
	if !strings.Contains(string(b), `"conditionId": "M1"`) {
		t.Errorf("dump = %s", b)
	}
}

func TestRunAggregatePages(t *testing.T) {
	md := newFake(t)
	cfg := testConfig(t)
	cfg.AggregatePages = 2
	cfg.HistoryMarkets = 0
	var out bytes.Buffer
	s, rec := newScanner(md, cfg, &out)

	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(md.priceIDs, "T9") {
		t.Errorf("prices requested for %v, want second page included", md.priceIDs)
	}
	if len(md.historyIDs) != 0 || len(rec.calls) != 0 {
		t.Errorf("history fetched with HistoryMarkets=0")
	}
}

func TestRunNoDump(t *testing.T) {
	md := newFake(t)
	cfg := testConfig(t)
	dir := filepath.Dir(cfg.DumpPath)
	cfg.DumpPath = ""
	var out bytes.Buffer
	s, _ := newScanner(md, cfg, &out)

	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("files written with empty DumpPath: %v", entries)
	}
}

func TestRunTransportError(t *testing.T) {
	tests := []struct {
		failOn      string
		wantPrices  bool
		wantHistory bool
	}{
		{failOn: "list"},
		{failOn: "pages"},
		{failOn: "book"},
		{failOn: "trades"},
		{failOn: "prices", wantPrices: true},
		{failOn: "history", wantPrices: true, wantHistory: true},
	}
	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			md := newFake(t)
			md.failOn = tt.failOn
			var out bytes.Buffer
			s, _ := newScanner(md, testConfig(t), &out)

			err := s.Run(context.Background())
			if !errors.Is(err, httpclient.ErrTransport) {
				t.Fatalf("Run() error = %v, want ErrTransport", err)
			}
			if got := len(md.priceIDs) > 0; got != tt.wantPrices {
				t.Errorf("prices requested = %v, want %v", got, tt.wantPrices)
			}
			if got := len(md.historyIDs) > 0; got != tt.wantHistory {
				t.Errorf("history requested = %v, want %v", got, tt.wantHistory)
			}
			if tt.wantHistory && len(md.historyIDs) != 1 {
				t.Errorf("history continued after error: %v", md.historyIDs)
			}
		})
	}
}

func TestRunNoLiveTokens(t *testing.T) {
	md := newFake(t)
	md.pages = []*clob.SimplifiedMarketPage{
		page(t, `{"data":[{"condition_id":"M2","closed":true,"tokens":[{"token_id":"T3"}]}]}`),
	}
	var out bytes.Buffer
	s, _ := newScanner(md, testConfig(t), &out)

	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(md.bookTokens) != 0 || len(md.tradeMarkets) != 0 || len(md.priceIDs) != 0 {
		t.Errorf("requests made without live tokens: book %v trades %v prices %v", md.bookTokens, md.tradeMarkets, md.priceIDs)
	}
}

func TestSleepCtx(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepCtx(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("sleepCtx on canceled context = %v", err)
	}
	if err := sleepCtx(context.Background(), time.Millisecond); err != nil {
		t.Errorf("sleepCtx = %v", err)
	}
}
