// Package platform describes the read-only market data a prediction market
// platform exposes to the scanner.
package platform

import (
	"context"

	"github.com/daszybak/marketscan/internal/polymarket/clob"
	"github.com/daszybak/marketscan/internal/polymarket/data"
	"github.com/daszybak/marketscan/internal/polymarket/gamma"
)

// MarketData is the fetch boundary. Every method returns a transport error
// for failed requests; GetOrderBook reports unknown tokens through its
// result instead. Close releases the connections held for the run.
type MarketData interface {
	ListMarkets(ctx context.Context, params gamma.ListMarketsParams) (*gamma.MarketList, error)
	GetSimplifiedMarkets(ctx context.Context, cursor string) (*clob.SimplifiedMarketPage, error)
	SimplifiedPages(ctx context.Context, maxPages int) ([]*clob.SimplifiedMarketPage, error)
	GetOrderBook(ctx context.Context, tokenID string) (clob.BookResult, error)
	GetBestPrices(ctx context.Context, tokenIDs []string, side clob.Side, batchSize int) (clob.PriceQuotes, error)
	GetTrades(ctx context.Context, conditionID string, limit int) (*data.TradeList, error)
	GetPriceHistory(ctx context.Context, tokenID, interval string) ([]clob.HistoryPoint, error)
	Close() error
}
