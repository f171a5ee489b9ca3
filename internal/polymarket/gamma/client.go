// Package gamma consume Polymarket gamma endpoints.
package gamma

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/daszybak/marketscan/internal/polymarket/jsontype"
	"github.com/daszybak/marketscan/pkg/httpclient"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a Gamma client. A nil httpClient gets one with the default
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

// ListMarketsParams filters /markets. Nil pointers leave the filter unset.
type ListMarketsParams struct {
	Limit     int
	Offset    int
	Cursor    string
	Closed    *bool
	Active    *bool
	Order     string
	Ascending *bool
}

func (p ListMarketsParams) values() url.Values {
	q := url.Values{}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	if p.Cursor != "" {
		q.Set("cursor", p.Cursor)
	}
	if p.Closed != nil {
		q.Set("closed", strconv.FormatBool(*p.Closed))
	}
	if p.Active != nil {
		q.Set("active", strconv.FormatBool(*p.Active))
	}
	if p.Order != "" {
		q.Set("order", p.Order)
	}
	if p.Ascending != nil {
		q.Set("ascending", strconv.FormatBool(*p.Ascending))
	}
	return q
}

// MarketList is a /markets response. The endpoint has answered with a bare
// array and with an object wrapping the list in "data" or "markets"; both
// decode here.
type MarketList struct {
	Markets    []*Market
	NextCursor string
	// Skipped counts records that could not be decoded.
	Skipped int
}

func (l *MarketList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		var env struct {
			Data       []json.RawMessage  `json:"data"`
			Markets    []json.RawMessage  `json:"markets"`
			NextCursor jsontype.OptString `json:"next_cursor"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			return err
		}
		raws = env.Data
		if raws == nil {
			raws = env.Markets
		}
		l.NextCursor = env.NextCursor.Value
	}
	l.Markets, l.Skipped = jsontype.DecodeEach[*Market](raws)
	return nil
}

// ListMarkets fetches one page of markets for discovery.
func (c *Client) ListMarkets(ctx context.Context, params ListMarketsParams) (*MarketList, error) {
	endpoint := "/markets"
	if q := params.values(); len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	markets, err := httpclient.GetResource[*MarketList](ctx, c.httpClient, c.baseURL, endpoint, []int{http.StatusOK})
	if err != nil {
		return nil, fmt.Errorf("couldn't list markets: %w", err)
	}
	return markets, nil
}

func (c *Client) GetMarket(ctx context.Context, id string) (*Market, error) {
	market, err := httpclient.GetResource[*Market](ctx, c.httpClient, c.baseURL, "/markets/"+url.PathEscape(id), []int{http.StatusOK})
	if err != nil {
		return nil, fmt.Errorf("couldn't get market %s: %w", id, err)
	}
	return market, nil
}
