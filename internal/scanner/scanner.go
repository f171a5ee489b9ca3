// Package scanner runs one read-only pass over Polymarket: discovery,
// token extraction, sample book and trades, best-ask aggregation, and price
// history, printing each stage as it completes.
package scanner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/daszybak/marketscan/internal/aggregator"
	"github.com/daszybak/marketscan/internal/market"
	"github.com/daszybak/marketscan/internal/platform"
	"github.com/daszybak/marketscan/internal/polymarket/gamma"
	"github.com/daszybak/marketscan/internal/report"
)

type Config struct {
	DiscoveryLimit  int
	DiscoveryOrder  string
	DisplayMarkets  int
	SimplifiedPages int
	// AggregatePages is how many of the fetched simplified pages feed the
	// aggregation.
	AggregatePages  int
	PriceBatchSize  int
	BookDepth       int
	TradesLimit     int
	TopN            int
	HistoryMarkets  int
	HistoryInterval string
	HistoryDelay    time.Duration
	// DumpPath is where discovered markets are written. Empty disables the
	// dump.
	DumpPath string
}

func DefaultConfig() Config {
	return Config{
		DiscoveryLimit:  100,
		DiscoveryOrder:  "volume24hr",
		DisplayMarkets:  10,
		SimplifiedPages: 2,
		AggregatePages:  1,
		PriceBatchSize:  50,
		BookDepth:       5,
		TradesLimit:     10,
		TopN:            15,
		HistoryMarkets:  5,
		HistoryInterval: "1h",
		HistoryDelay:    500 * time.Millisecond,
		DumpPath:        "polymarket_active_markets.json",
	}
}

type Scanner struct {
	md  platform.MarketData
	cfg Config
	out io.Writer
	log *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Scanner that prints to out. md is not closed by the
// scanner.
func New(md platform.MarketData, cfg Config, out io.Writer, log *slog.Logger) *Scanner {
	return &Scanner{
		md:    md,
		cfg:   cfg,
		out:   out,
		log:   log.With("component", "scanner"),
		sleep: sleepCtx,
	}
}

// Run performs one scan. The first transport error aborts the run and is
// returned.
func (s *Scanner) Run(ctx context.Context) error {
	markets, err := s.discover(ctx)
	if err != nil {
		return err
	}

	rows, err := s.tokens(ctx)
	if err != nil {
		return err
	}
	live := market.Live(rows)

	if len(live) > 0 {
		if err := s.sampleBook(ctx, live[0]); err != nil {
			return err
		}
		if err := s.sampleTrades(ctx, live[0]); err != nil {
			return err
		}
	}

	if err := s.aggregate(ctx, live); err != nil {
		return err
	}

	if err := s.history(ctx, live); err != nil {
		return err
	}

	s.log.Info("scan complete", "markets", len(markets), "tokens", len(rows), "live_tokens", len(live))
	return nil
}

func (s *Scanner) discover(ctx context.Context) ([]*gamma.Market, error) {
	closed, active, ascending := false, true, false
	list, err := s.md.ListMarkets(ctx, gamma.ListMarketsParams{
		Limit:     s.cfg.DiscoveryLimit,
		Closed:    &closed,
		Active:    &active,
		Order:     s.cfg.DiscoveryOrder,
		Ascending: &ascending,
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't discover markets: %w", err)
	}
	markets := list.Markets
	s.log.Info("discovered markets", "count", len(markets))

	if err := report.Heading(s.out, "TOP MARKETS"); err != nil {
		return nil, err
	}
	if err := report.Markets(s.out, markets, s.cfg.DisplayMarkets); err != nil {
		return nil, err
	}
	if err := report.Heading(s.out, "MARKET STATISTICS"); err != nil {
		return nil, err
	}
	if err := report.Statistics(s.out, markets); err != nil {
		return nil, err
	}

	if s.cfg.DumpPath != "" {
		if err := report.WriteJSON(s.cfg.DumpPath, markets); err != nil {
			return nil, err
		}
		s.log.Info("saved markets", "path", s.cfg.DumpPath, "count", len(markets))
	}
	return markets, nil
}

// tokens fetches the simplified pages and flattens the first AggregatePages
// of them.
func (s *Scanner) tokens(ctx context.Context) ([]market.TokenRow, error) {
	pages, err := s.md.SimplifiedPages(ctx, s.cfg.SimplifiedPages)
	if err != nil {
		return nil, fmt.Errorf("couldn't list simplified markets: %w", err)
	}
	n := min(max(s.cfg.AggregatePages, 1), len(pages))
	rows := market.FlattenPages(pages[:n])
	s.log.Info("extracted tokens", "pages", len(pages), "used_pages", n, "tokens", len(rows))
	return rows, nil
}

func (s *Scanner) sampleBook(ctx context.Context, tok market.TokenRow) error {
	res, err := s.md.GetOrderBook(ctx, tok.TokenID)
	if err != nil {
		return fmt.Errorf("couldn't sample order book: %w", err)
	}
	if !res.Found() {
		s.log.Warn("order book not found", "token_id", tok.TokenID)
	}
	if err := report.Heading(s.out, "ORDER BOOK SAMPLE"); err != nil {
		return err
	}
	return report.Book(s.out, res, s.cfg.BookDepth)
}

func (s *Scanner) sampleTrades(ctx context.Context, tok market.TokenRow) error {
	trades, err := s.md.GetTrades(ctx, tok.MarketID, s.cfg.TradesLimit)
	if err != nil {
		return fmt.Errorf("couldn't sample trades: %w", err)
	}
	if err := report.Heading(s.out, "RECENT TRADES"); err != nil {
		return err
	}
	return report.Trades(s.out, trades.Trades)
}

func (s *Scanner) aggregate(ctx context.Context, live []market.TokenRow) error {
	agg := aggregator.New(s.md, s.cfg.PriceBatchSize, s.log)
	results, err := agg.SumBestAsks(ctx, live)
	if err != nil {
		return fmt.Errorf("couldn't aggregate best asks: %w", err)
	}

	priced := 0
	for _, r := range results {
		if r.Priced() {
			priced++
		}
	}
	s.log.Info("aggregated markets", "markets", len(results), "priced", priced)

	if err := report.Heading(s.out, "SUM OF BEST ASKS BY MARKET"); err != nil {
		return err
	}
	return report.SumYes(s.out, results, s.cfg.TopN)
}

// history fetches the price series of the first token of the first
// HistoryMarkets live markets, pausing HistoryDelay between requests.
func (s *Scanner) history(ctx context.Context, live []market.TokenRow) error {
	if s.cfg.HistoryMarkets <= 0 {
		return nil
	}
	if err := report.Heading(s.out, "PRICE HISTORY"); err != nil {
		return err
	}

	seen := make(map[string]bool)
	fetched := 0
	for _, tok := range live {
		if fetched >= s.cfg.HistoryMarkets {
			break
		}
		if seen[tok.MarketID] {
			continue
		}
		seen[tok.MarketID] = true

		if fetched > 0 {
			if err := s.sleep(ctx, s.cfg.HistoryDelay); err != nil {
				return err
			}
		}
		points, err := s.md.GetPriceHistory(ctx, tok.TokenID, s.cfg.HistoryInterval)
		if err != nil {
			return fmt.Errorf("couldn't get price history: %w", err)
		}
		fetched++

		label := tok.MarketID
		if tok.Label != "" {
			label += " " + tok.Label
		}
		if err := report.History(s.out, label, points); err != nil {
			return err
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
