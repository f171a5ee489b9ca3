// Package data calls the Polymarket Data-API for public trade history.
package data

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/daszybak/marketscan/internal/polymarket/jsontype"
	"github.com/daszybak/marketscan/pkg/httpclient"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = httpclient.NewClient(0)
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

type Trade struct {
	ProxyWallet     string             `json:"proxyWallet"`
	Side            string             `json:"side"`
	Asset           jsontype.OptString `json:"asset"`
	ConditionID     string             `json:"conditionId"`
	Size            jsontype.Float     `json:"size"`
	Price           jsontype.Float     `json:"price"`
	Timestamp       int64              `json:"timestamp"`
	Title           string             `json:"title"`
	Outcome         string             `json:"outcome"`
	TransactionHash string             `json:"transactionHash"`
}

func (t Trade) Time() time.Time {
	return time.Unix(t.Timestamp, 0).UTC()
}

// TradeList accepts a bare array of trades or an object with a "data" list.
type TradeList struct {
	Trades []Trade
	// Skipped counts records that could not be decoded.
	Skipped int
}

func (l *TradeList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		var env struct {
			Data []json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			return err
		}
		raws = env.Data
	}
	l.Trades, l.Skipped = jsontype.DecodeEach[Trade](raws)
	return nil
}

// GetTrades returns recent trades, filtered to one market when conditionID
// is set.
func (c *Client) GetTrades(ctx context.Context, conditionID string, limit int) (*TradeList, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if conditionID != "" {
		q.Set("market", conditionID)
	}
	endpoint := "/trades"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	trades, err := httpclient.GetResource[*TradeList](ctx, c.httpClient, c.baseURL, endpoint, []int{http.StatusOK})
	if err != nil {
		return nil, fmt.Errorf("couldn't get trades for market %q: %w", conditionID, err)
	}
	return trades, nil
}
