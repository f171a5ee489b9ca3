// Package polymarket adapts Polymarket's public APIs (CLOB, Gamma, Data) to
// the platform.MarketData interface.
package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/daszybak/marketscan/internal/platform"
	"github.com/daszybak/marketscan/internal/polymarket/clob"
	"github.com/daszybak/marketscan/internal/polymarket/data"
	"github.com/daszybak/marketscan/internal/polymarket/gamma"
	"github.com/daszybak/marketscan/pkg/httpclient"
)

const platformName = "polymarket"

const (
	DefaultGammaURL = "https://gamma-api.polymarket.com"
	DefaultClobURL  = "https://clob.polymarket.com"
	DefaultDataURL  = "https://data-api.polymarket.com"
)

type Config struct {
	ClobURL        string
	GammaURL       string
	DataURL        string
	RequestTimeout time.Duration
}

var _ platform.MarketData = (*Polymarket)(nil)

// Polymarket shares one HTTP client across the three services for the
// lifetime of a run.
type Polymarket struct {
	log        *slog.Logger
	httpClient *http.Client

	clob  *clob.Client
	gamma *gamma.Client
	data  *data.Client
}

// New creates a Polymarket client. Call Close when the run is over.
func New(cfg Config, log *slog.Logger) *Polymarket {
	hc := httpclient.NewClient(cfg.RequestTimeout)
	return &Polymarket{
		log:        log.With("component", platformName),
		httpClient: hc,
		clob:       clob.New(orDefault(cfg.ClobURL, DefaultClobURL), hc),
		gamma:      gamma.New(orDefault(cfg.GammaURL, DefaultGammaURL), hc),
		data:       data.New(orDefault(cfg.DataURL, DefaultDataURL), hc),
	}
}

// Close drops idle keep-alive connections. In-flight requests are not
// affected.
func (p *Polymarket) Close() error {
	p.httpClient.CloseIdleConnections()
	p.log.Debug("closed idle connections")
	return nil
}

func (p *Polymarket) ListMarkets(ctx context.Context, params gamma.ListMarketsParams) (*gamma.MarketList, error) {
	list, err := p.gamma.ListMarkets(ctx, params)
	if err != nil {
		return nil, err
	}
	if list.Skipped > 0 {
		p.log.Warn("skipped malformed markets", "source", "gamma", "count", list.Skipped)
	}
	p.log.Debug("listed markets", "count", len(list.Markets))
	return list, nil
}

func (p *Polymarket) GetSimplifiedMarkets(ctx context.Context, cursor string) (*clob.SimplifiedMarketPage, error) {
	return p.clob.GetSimplifiedMarkets(ctx, cursor)
}

func (p *Polymarket) SimplifiedPages(ctx context.Context, maxPages int) ([]*clob.SimplifiedMarketPage, error) {
	pages, err := p.clob.SimplifiedPages(ctx, maxPages)
	for i, page := range pages {
		if page.Skipped > 0 {
			p.log.Warn("skipped malformed markets", "source", "clob", "page", i, "count", page.Skipped)
		}
	}
	if err != nil {
		return pages, fmt.Errorf("couldn't get simplified pages after %d: %w", len(pages), err)
	}
	p.log.Debug("fetched simplified pages", "count", len(pages))
	return pages, nil
}

func (p *Polymarket) GetOrderBook(ctx context.Context, tokenID string) (clob.BookResult, error) {
	return p.clob.GetOrderBook(ctx, tokenID)
}

func (p *Polymarket) GetBestPrices(ctx context.Context, tokenIDs []string, side clob.Side, batchSize int) (clob.PriceQuotes, error) {
	quotes, err := p.clob.GetBestPrices(ctx, tokenIDs, side, batchSize)
	if err != nil {
		return nil, err
	}
	p.log.Debug("fetched best prices", "side", side, "requested", len(tokenIDs), "received", len(quotes))
	return quotes, nil
}

func (p *Polymarket) GetTrades(ctx context.Context, conditionID string, limit int) (*data.TradeList, error) {
	trades, err := p.data.GetTrades(ctx, conditionID, limit)
	if err != nil {
		return nil, err
	}
	if trades.Skipped > 0 {
		p.log.Warn("skipped malformed trades", "market", conditionID, "count", trades.Skipped)
	}
	return trades, nil
}

func (p *Polymarket) GetPriceHistory(ctx context.Context, tokenID, interval string) ([]clob.HistoryPoint, error) {
	return p.clob.GetPriceHistory(ctx, tokenID, interval)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
