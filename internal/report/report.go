// Package report renders scan results as plain text and writes the JSON
// dump of discovered markets.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/daszybak/marketscan/internal/aggregator"
	"github.com/daszybak/marketscan/internal/orderbook"
	"github.com/daszybak/marketscan/internal/polymarket/clob"
	"github.com/daszybak/marketscan/internal/polymarket/data"
	"github.com/daszybak/marketscan/internal/polymarket/gamma"
	"github.com/daszybak/marketscan/internal/price"
)

// ImpliedTolerance is how far the implied probability of a market may stray
// from 100% before it is flagged.
const ImpliedTolerance = 0.01

var rule = strings.Repeat("=", 80)

// printer remembers the first write error so callers can check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// Heading prints a section title between two rules.
func Heading(w io.Writer, title string) error {
	p := &printer{w: w}
	p.printf("\n%s\n%s\n%s\n", rule, title, rule)
	return p.err
}

// Markets prints a block for each of the first n markets.
func Markets(w io.Writer, markets []*gamma.Market, n int) error {
	p := &printer{w: w}
	for i, m := range markets[:max(0, min(n, len(markets)))] {
		p.printf("\n[Market %d]\n", i+1)
		market(p, m)
	}
	return p.err
}

func market(p *printer, m *gamma.Market) {
	p.printf("%s\n", rule)
	p.printf("Market: %s\n", orNA(m.Question))
	p.printf("Market ID: %s\n", orNA(m.ID.Value))
	p.printf("Condition ID: %s\n", orNA(m.ConditionID))
	p.printf("Category: %s\n", orNA(m.Category))
	if m.EndDateISO != "" {
		p.printf("Ends: %s\n", formatEndDate(m.EndDateISO))
	}
	p.printf("Total Volume: %s\n", m.Volume.USD())
	p.printf("24h Volume: %s\n", m.Volume24hr.USD())
	p.printf("Liquidity: %s\n", m.Liquidity.USD())

	outcomes := m.OutcomeList()
	p.printf("\nOutcomes (%d):\n", len(outcomes))
	for i, o := range outcomes {
		if math.IsNaN(o.Price) {
			p.printf("  %d. %s: No price data\n", i+1, o.Label)
			continue
		}
		winner := ""
		if o.Winner {
			winner = " WINNER"
		}
		p.printf("  %d. %s: $%.4f (%.2f%%)%s\n", i+1, o.Label, o.Price, o.Price*100, winner)
		if o.TokenID != "" {
			p.printf("     Token ID: %s\n", o.TokenID)
		}
	}
	p.printf("%s\n", rule)

	if total, ok := m.ImpliedProbability(); ok {
		p.printf("\nTotal implied probability: %.2f%%\n", total*100)
		if math.Abs(total-1) > ImpliedTolerance {
			p.printf("Possible mispricing, gap: %.2f%%\n", math.Abs(1-total)*100)
		}
	}
}

// Statistics prints totals over all discovered markets.
func Statistics(w io.Writer, markets []*gamma.Market) error {
	var volume24h, liquidity price.Amount
	for _, m := range markets {
		volume24h = volume24h.Add(m.Volume24hr)
		liquidity = liquidity.Add(m.Liquidity)
	}
	p := &printer{w: w}
	p.printf("Total markets: %d\n", len(markets))
	p.printf("Total 24h volume: %s\n", volume24h.USD())
	p.printf("Total liquidity: %s\n", liquidity.USD())
	return p.err
}

// SumYes prints the first n priced results in rank order.
func SumYes(w io.Writer, results []aggregator.Result, n int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	p := &printer{w: tw}
	p.printf("MARKET\tOUTCOMES\tSUM_ASK\tDEV_FROM_1\n")
	shown := 0
	for _, r := range results {
		if shown >= n {
			break
		}
		if !r.Priced() {
			continue
		}
		p.printf("%s\t%d\t%.3f\t%+.3f\n", r.MarketID, r.OutcomeCount, r.SumBestAsk, r.Deviation())
		shown++
	}
	if p.err != nil {
		return p.err
	}
	return tw.Flush()
}

// Book prints the top depth levels of each side, or a not-found line.
func Book(w io.Writer, res clob.BookResult, depth int) error {
	p := &printer{w: w}
	if !res.Found() {
		p.printf("Book not found for token %s\n", res.TokenID)
		return p.err
	}

	ob, skipped := orderbook.FromSummary(res.Book.Bids, res.Book.Asks, time.Now())
	p.printf("Book for token %s (market %s): %d bids, %d asks", res.TokenID, orNA(res.Book.Market), ob.Len(orderbook.Bids), ob.Len(orderbook.Asks))
	if skipped > 0 {
		p.printf(", %d malformed levels skipped", skipped)
	}
	p.printf("\n")
	if spread, ok := ob.Spread(); ok {
		p.printf("Spread: %s\n", spread)
	}
	if p.err != nil {
		return p.err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	p = &printer{w: tw}
	p.printf("SIDE\tPRICE\tSIZE\n")
	for _, side := range []orderbook.Side{orderbook.Asks, orderbook.Bids} {
		levels, err := ob.GetTopN(side, depth)
		if err != nil {
			return err
		}
		for _, lvl := range levels {
			p.printf("%s\t%s\t%.2f\n", side, lvl.Price, lvl.Size.Float64())
		}
	}
	if p.err != nil {
		return p.err
	}
	return tw.Flush()
}

// Trades prints one line per trade, newest first as received.
func Trades(w io.Writer, trades []data.Trade) error {
	if len(trades) == 0 {
		_, err := fmt.Fprintln(w, "No trades")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	p := &printer{w: tw}
	p.printf("TIME\tSIDE\tOUTCOME\tPRICE\tSIZE\n")
	for _, t := range trades {
		p.printf("%s\t%s\t%s\t%s\t%s\n",
			t.Time().Format(time.DateTime), t.Side, t.Outcome, formatFloat(float64(t.Price), 4), formatFloat(float64(t.Size), 2))
	}
	if p.err != nil {
		return p.err
	}
	return tw.Flush()
}

// History summarises a price series.
func History(w io.Writer, label string, points []clob.HistoryPoint) error {
	p := &printer{w: w}
	if len(points) == 0 {
		p.printf("%s: no historical data\n", label)
		return p.err
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, pt := range points {
		lo = min(lo, float64(pt.P))
		hi = max(hi, float64(pt.P))
	}
	first, last := points[0], points[len(points)-1]
	p.printf("%s: %d points from %s to %s, first %.4f last %.4f low %.4f high %.4f\n",
		label, len(points),
		first.Time().Format(time.DateOnly), last.Time().Format(time.DateOnly),
		float64(first.P), float64(last.P), lo, hi)
	return p.err
}

// WriteJSON writes the markets to path as an indented JSON array, replacing
// any previous file.
func WriteJSON(path string, markets []*gamma.Market) error {
	if markets == nil {
		markets = []*gamma.Market{}
	}
	b, err := json.MarshalIndent(markets, "", "  ")
	if err != nil {
		return fmt.Errorf("couldn't marshal markets: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("couldn't write %s: %w", path, err)
	}
	return nil
}

func formatEndDate(s string) string {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format("2006-01-02 15:04 UTC")
		}
	}
	return s
}

func formatFloat(f float64, prec int) string {
	if math.IsNaN(f) {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, f)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
