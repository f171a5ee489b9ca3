package clob

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/daszybak/marketscan/pkg/httpclient"
)

type Side string

const (
	// Buy quotes are the best ask: what a buyer pays.
	Buy Side = "BUY"
	// Sell quotes are the best bid: what a seller receives.
	Sell Side = "SELL"
)

// PriceQuotes maps token id to side to the quoted price string.
type PriceQuotes map[string]map[Side]string

// Quote returns the price string for tokenID on side, if any.
func (q PriceQuotes) Quote(tokenID string, side Side) (string, bool) {
	sides, ok := q[tokenID]
	if !ok {
		return "", false
	}
	p, ok := sides[side]
	return p, ok
}

// UnmarshalJSON accepts {token_id: {side: price}}. Entries of any other shape
// are dropped and non-string prices are kept in their JSON text form, so a
// malformed entry never fails the whole batch.
func (q *PriceQuotes) UnmarshalJSON(data []byte) error {
	out := PriceQuotes{}
	var byToken map[string]json.RawMessage
	if err := json.Unmarshal(data, &byToken); err != nil {
		*q = out
		return nil
	}
	for tokenID, raw := range byToken {
		var bySide map[string]json.RawMessage
		if err := json.Unmarshal(raw, &bySide); err != nil {
			out[tokenID] = map[Side]string{}
			continue
		}
		sides := make(map[Side]string, len(bySide))
		for side, v := range bySide {
			if string(v) == "null" {
				continue
			}
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				sides[Side(side)] = s
				continue
			}
			var n json.Number
			if err := json.Unmarshal(v, &n); err == nil {
				sides[Side(side)] = n.String()
			}
		}
		out[tokenID] = sides
	}
	*q = out
	return nil
}

type priceParam struct {
	TokenID string `json:"token_id"`
	Side    Side   `json:"side"`
}

type pricesRequest struct {
	Params []priceParam `json:"params"`
}

// GetBestPrices queries /prices for every token id on one side, batchSize ids
// per request, and merges the responses. Buy yields best asks, Sell best bids.
func (c *Client) GetBestPrices(ctx context.Context, tokenIDs []string, side Side, batchSize int) (PriceQuotes, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	out := PriceQuotes{}
	for start := 0; start < len(tokenIDs); start += batchSize {
		batch := tokenIDs[start:min(start+batchSize, len(tokenIDs))]

		req := pricesRequest{Params: make([]priceParam, 0, len(batch))}
		for _, id := range batch {
			req.Params = append(req.Params, priceParam{TokenID: id, Side: side})
		}

		quotes, err := httpclient.PostResource[PriceQuotes](ctx, c.httpClient, c.baseURL, "/prices", req, []int{http.StatusOK})
		if err != nil {
			return nil, fmt.Errorf("couldn't get %s prices for batch at %d: %w", side, start, err)
		}
		for tokenID, sides := range quotes {
			out[tokenID] = sides
		}
	}
	return out, nil
}
