package clob

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/daszybak/marketscan/internal/polymarket/jsontype"
	"github.com/daszybak/marketscan/pkg/httpclient"
)

// SimplifiedToken is one outcome of a simplified market. The label may come
// from any of name, outcome or title depending on the market's vintage.
type SimplifiedToken struct {
	TokenID jsontype.OptString `json:"token_id"`
	Name    jsontype.OptString `json:"name"`
	Outcome jsontype.OptString `json:"outcome"`
	Title   jsontype.OptString `json:"title"`
	Price   *jsontype.Float    `json:"price,omitempty"`
}

// Label returns the first non-empty of name, outcome and title.
func (t SimplifiedToken) Label() string {
	for _, s := range []jsontype.OptString{t.Name, t.Outcome, t.Title} {
		if s.Valid && s.Value != "" {
			return s.Value
		}
	}
	return ""
}

type SimplifiedMarket struct {
	ConditionID jsontype.OptString `json:"condition_id"`
	Active      jsontype.Bool      `json:"active"`
	Closed      jsontype.Bool      `json:"closed"`
	Tokens      []SimplifiedToken  `json:"tokens"`
}

type SimplifiedMarketPage struct {
	Limit      int
	Count      int
	Data       []SimplifiedMarket
	NextCursor string
	// Skipped counts records in Data that could not be decoded.
	Skipped int
}

func (p *SimplifiedMarketPage) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	markets, skipped := jsontype.DecodeEach[SimplifiedMarket](env.Data)
	*p = SimplifiedMarketPage{
		Limit:      env.Limit,
		Count:      env.Count,
		Data:       markets,
		NextCursor: env.NextCursor.Value,
		Skipped:    skipped,
	}
	return nil
}

// GetSimplifiedMarkets fetches one page of /simplified-markets. An empty
// cursor requests the first page.
func (c *Client) GetSimplifiedMarkets(ctx context.Context, nextCursor string) (*SimplifiedMarketPage, error) {
	page, err := httpclient.GetResource[*SimplifiedMarketPage](ctx, c.httpClient, c.baseURL, cursorEndpoint("/simplified-markets", nextCursor), []int{http.StatusOK})
	if err != nil {
		return nil, fmt.Errorf("couldn't get simplified markets from next cursor %q: %w", nextCursor, err)
	}
	return page, nil
}

// SimplifiedPages follows next_cursor for at most maxPages pages.
func (c *Client) SimplifiedPages(ctx context.Context, maxPages int) ([]*SimplifiedMarketPage, error) {
	pages := make([]*SimplifiedMarketPage, 0, max(maxPages, 0))
	cursor := ""
	for range maxPages {
		page, err := c.GetSimplifiedMarkets(ctx, cursor)
		if err != nil {
			return pages, err
		}
		pages = append(pages, page)
		if IsLastCursor(page.NextCursor) {
			break
		}
		cursor = page.NextCursor
	}
	return pages, nil
}
