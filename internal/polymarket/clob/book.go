package clob

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/daszybak/marketscan/internal/polymarket/jsontype"
	"github.com/daszybak/marketscan/pkg/httpclient"
)

type OrderSummary struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// OrderBookSummary is the /book response for one token.
type OrderBookSummary struct {
	Market         string         `json:"market"`
	AssetID        string         `json:"asset_id"`
	Timestamp      string         `json:"timestamp"`
	Hash           string         `json:"hash"`
	Bids           []OrderSummary `json:"bids"`
	Asks           []OrderSummary `json:"asks"`
	MinOrderSize   string         `json:"min_order_size"`
	TickSize       string         `json:"tick_size"`
	NegRisk        jsontype.Bool  `json:"neg_risk"`
	LastTradePrice string         `json:"last_trade_price"`
}

type BookStatus int

const (
	BookFound BookStatus = iota + 1
	BookNotFound
)

func (s BookStatus) String() string {
	switch s {
	case BookFound:
		return "found"
	case BookNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// BookResult is the outcome of an order book lookup. Book is set only when
// Status is BookFound. Transport failures are reported as errors instead.
type BookResult struct {
	Status  BookStatus
	TokenID string
	Book    *OrderBookSummary
}

func (r BookResult) Found() bool {
	return r.Status == BookFound
}

// GetOrderBook fetches the book for tokenID. An unknown token is not an
// error: it yields a BookNotFound result.
func (c *Client) GetOrderBook(ctx context.Context, tokenID string) (BookResult, error) {
	endpoint := "/book?" + url.Values{"token_id": {tokenID}}.Encode()
	book, err := httpclient.GetResource[*OrderBookSummary](ctx, c.httpClient, c.baseURL, endpoint, []int{http.StatusOK})
	if httpclient.IsNotFound(err) {
		return BookResult{Status: BookNotFound, TokenID: tokenID}, nil
	}
	if err != nil {
		return BookResult{}, fmt.Errorf("couldn't get order book for token %s: %w", tokenID, err)
	}
	if book == nil {
		book = &OrderBookSummary{AssetID: tokenID}
	}
	return BookResult{Status: BookFound, TokenID: tokenID, Book: book}, nil
}
