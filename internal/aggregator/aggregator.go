// Package aggregator sums the best ask of every outcome of a market and
// ranks markets by how far that sum is from 1.0.
//
// For a complete set of mutually exclusive outcomes the asks should add up
// to roughly 1. A sum below 1 means the full set can be bought for less than
// its payout; a sum above 1 means the book is overpriced.
package aggregator

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/daszybak/marketscan/internal/market"
	"github.com/daszybak/marketscan/internal/polymarket/clob"
	"github.com/daszybak/marketscan/internal/price"
	"github.com/daszybak/marketscan/pkg/hashset"
)

// PriceSource returns best prices for a set of tokens.
type PriceSource interface {
	GetBestPrices(ctx context.Context, tokenIDs []string, side clob.Side, batchSize int) (clob.PriceQuotes, error)
}

// Result is the aggregate for one market. SumBestAsk is NaN when none of the
// market's outcomes had a usable quote.
type Result struct {
	MarketID     string  `json:"market_id"`
	OutcomeCount int     `json:"outcome_count"`
	SumBestAsk   float64 `json:"sum_best_ask"`
}

// Priced reports whether at least one outcome had a usable quote.
func (r Result) Priced() bool {
	return !math.IsNaN(r.SumBestAsk) && !math.IsInf(r.SumBestAsk, 0)
}

// Deviation is SumBestAsk - 1.
func (r Result) Deviation() float64 {
	return r.SumBestAsk - 1
}

// Group is the set of token ids that belong to one market.
type Group struct {
	MarketID string
	TokenIDs []string
}

type Aggregator struct {
	src       PriceSource
	batchSize int
	log       *slog.Logger
}

// New creates an Aggregator. A batchSize <= 0 uses clob.DefaultBatchSize.
func New(src PriceSource, batchSize int, log *slog.Logger) *Aggregator {
	if batchSize <= 0 {
		batchSize = clob.DefaultBatchSize
	}
	return &Aggregator{
		src:       src,
		batchSize: batchSize,
		log:       log.With("component", "aggregator"),
	}
}

// GroupRows groups rows by market in order of first appearance. Rows without
// a token id or market id, and rows of closed markets, are dropped. A token
// id is assigned to the first market it appears under; later occurrences are
// ignored.
func GroupRows(rows []market.TokenRow) []Group {
	var groups []Group
	index := make(map[string]int)
	seen := hashset.NewSet[string]()

	for _, r := range rows {
		if !r.HasTokenID || r.TokenID == "" || r.MarketID == "" || r.Closed {
			continue
		}
		if !seen.Add(r.TokenID) {
			continue
		}
		i, ok := index[r.MarketID]
		if !ok {
			i = len(groups)
			index[r.MarketID] = i
			groups = append(groups, Group{MarketID: r.MarketID})
		}
		groups[i].TokenIDs = append(groups[i].TokenIDs, r.TokenID)
	}
	return groups
}

// SumBestAsks fetches the BUY quote of every live token and returns one
// ranked Result per market. Unusable quotes only affect the market they
// belong to. A failed price request is returned as an error.
func (a *Aggregator) SumBestAsks(ctx context.Context, rows []market.TokenRow) ([]Result, error) {
	groups := GroupRows(rows)
	if len(groups) == 0 {
		return []Result{}, nil
	}

	var tokenIDs []string
	for _, g := range groups {
		tokenIDs = append(tokenIDs, g.TokenIDs...)
	}

	quotes, err := a.src.GetBestPrices(ctx, tokenIDs, clob.Buy, a.batchSize)
	if err != nil {
		return nil, fmt.Errorf("couldn't get best asks for %d tokens: %w", len(tokenIDs), err)
	}

	results := make([]Result, 0, len(groups))
	missing := 0
	for _, g := range groups {
		sum, n := 0.0, 0
		for _, id := range g.TokenIDs {
			q, _ := quotes.Quote(id, clob.Buy)
			v := price.ParseFloat(q)
			if math.IsNaN(v) {
				missing++
				continue
			}
			sum += v
			n++
		}
		if n == 0 {
			sum = math.NaN()
		}
		results = append(results, Result{
			MarketID:     g.MarketID,
			OutcomeCount: len(g.TokenIDs),
			SumBestAsk:   sum,
		})
	}

	Rank(results)
	a.log.Debug("aggregated best asks",
		"markets", len(results),
		"tokens", len(tokenIDs),
		"unpriced_tokens", missing,
	)
	return results, nil
}

// Rank sorts results by SumBestAsk ascending in place. Unpriced results sort
// last and ties keep their order.
func Rank(results []Result) {
	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(rankKey(a), rankKey(b))
	})
}

func rankKey(r Result) float64 {
	if math.IsNaN(r.SumBestAsk) {
		return math.Inf(1)
	}
	return r.SumBestAsk
}
