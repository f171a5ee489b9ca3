// Package clob is used to call clob polymarket endpoints.
package clob

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/daszybak/marketscan/internal/polymarket/jsontype"
	"github.com/daszybak/marketscan/internal/price"
	"github.com/daszybak/marketscan/pkg/httpclient"
)

const DefaultBatchSize = 50

type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a CLOB client. A nil httpClient gets one with the default
// request timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = httpclient.NewClient(0)
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// MarketToken is one outcome of a full market. Missing or malformed fields
// decode to their zero values so the market itself is kept.
type MarketToken struct {
	Outcome string             `json:"outcome"`
	Price   price.OptPrice     `json:"price"`
	TokenID jsontype.OptString `json:"token_id"`
	Winner  jsontype.Bool      `json:"winner"`
}

type Market struct {
	ConditionID string        `json:"condition_id"`
	Question    string        `json:"question"`
	Description string        `json:"description"`
	MarketSlug  string        `json:"market_slug"`
	EndDateISO  string        `json:"end_date_iso"`
	Active      jsontype.Bool `json:"active"`
	Closed      jsontype.Bool `json:"closed"`
	NegRisk     jsontype.Bool `json:"neg_risk"`
	Tokens      []MarketToken `json:"tokens"`
}

type MarketPage struct {
	Limit      int
	Count      int
	Data       []*Market
	NextCursor string
	// Skipped counts records in Data that could not be decoded.
	Skipped int
}

func (p *MarketPage) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	markets, skipped := jsontype.DecodeEach[*Market](env.Data)
	*p = MarketPage{
		Limit:      env.Limit,
		Count:      env.Count,
		Data:       markets,
		NextCursor: env.NextCursor.Value,
		Skipped:    skipped,
	}
	return nil
}

func (c *Client) GetMarketByConditionID(ctx context.Context, conditionID string) (*Market, error) {
	market, err := httpclient.GetResource[*Market](ctx, c.httpClient, c.baseURL, "/markets/"+url.PathEscape(conditionID), []int{http.StatusOK})
	if err != nil {
		return nil, fmt.Errorf("couldn't get market by condition ID %s: %w", conditionID, err)
	}
	return market, nil
}

func (c *Client) GetMarkets(ctx context.Context, nextCursor string) (*MarketPage, error) {
	markets, err := httpclient.GetResource[*MarketPage](ctx, c.httpClient, c.baseURL, cursorEndpoint("/markets", nextCursor), []int{http.StatusOK})
	if err != nil {
		return nil, fmt.Errorf("couldn't get markets from next cursor %q: %w", nextCursor, err)
	}
	return markets, nil
}

func (c *Client) GetAllMarkets(ctx context.Context) ([]*Market, error) {
	markets := []*Market{}
	cursor := ""
	for {
		page, err := c.GetMarkets(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("couldn't get markets for cursor %q: %w", cursor, err)
		}
		markets = append(markets, page.Data...)
		if IsLastCursor(page.NextCursor) {
			break
		}
		cursor = page.NextCursor
	}
	return markets, nil
}

// IsLastCursor reports whether a next_cursor value ends pagination. The API
// signals the end with an empty cursor or base64("-1").
func IsLastCursor(cursor string) bool {
	if cursor == "" {
		return true
	}
	decoded, err := base64.StdEncoding.DecodeString(cursor)
	return err == nil && string(decoded) == "-1"
}

func cursorEndpoint(path, cursor string) string {
	if cursor == "" {
		return path
	}
	return path + "?" + url.Values{"next_cursor": {cursor}}.Encode()
}

// envelope is the paginated wrapper shared by the CLOB list endpoints.
type envelope struct {
	Limit      int                `json:"limit"`
	Count      int                `json:"count"`
	NextCursor jsontype.OptString `json:"next_cursor"`
	Data       []json.RawMessage  `json:"data"`
}
