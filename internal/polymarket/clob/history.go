package clob

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/daszybak/marketscan/internal/polymarket/jsontype"
	"github.com/daszybak/marketscan/pkg/httpclient"
)

type HistoryPoint struct {
	T int64          `json:"t"`
	P jsontype.Float `json:"p"`
}

func (p HistoryPoint) Time() time.Time {
	return time.Unix(p.T, 0).UTC()
}

type priceHistory struct {
	History []json.RawMessage `json:"history"`
}

// GetPriceHistory returns the price series of one token. interval is one of
// the API's windows such as "1h", "1d" or "max". Points that do not decode
// or carry no usable price are dropped.
func (c *Client) GetPriceHistory(ctx context.Context, tokenID, interval string) ([]HistoryPoint, error) {
	q := url.Values{"market": {tokenID}}
	if interval != "" {
		q.Set("interval", interval)
	}
	h, err := httpclient.GetResource[priceHistory](ctx, c.httpClient, c.baseURL, "/prices-history?"+q.Encode(), []int{http.StatusOK})
	if err != nil {
		return nil, fmt.Errorf("couldn't get price history for token %s: %w", tokenID, err)
	}

	decoded, _ := jsontype.DecodeEach[HistoryPoint](h.History)
	points := decoded[:0]
	for _, p := range decoded {
		if p.P.Valid() {
			points = append(points, p)
		}
	}
	return points, nil
}
