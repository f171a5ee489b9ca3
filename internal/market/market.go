// Package market flattens market payloads into one row per outcome token.
package market

import (
	"github.com/daszybak/marketscan/internal/polymarket/clob"
)

// TokenRow is a single outcome token together with the flags of the market
// it belongs to. TokenID is meaningful only when HasTokenID is set.
type TokenRow struct {
	MarketID   string
	Active     bool
	Closed     bool
	TokenID    string
	HasTokenID bool
	Label      string
}

// FlattenSimplified emits one row per token of every market on the page.
// Rows are kept even when the token id is missing.
func FlattenSimplified(page *clob.SimplifiedMarketPage) []TokenRow {
	if page == nil {
		return nil
	}
	var rows []TokenRow
	for _, m := range page.Data {
		for _, tok := range m.Tokens {
			rows = append(rows, TokenRow{
				MarketID:   m.ConditionID.Value,
				Active:     bool(m.Active),
				Closed:     bool(m.Closed),
				TokenID:    tok.TokenID.Value,
				HasTokenID: tok.TokenID.Valid && tok.TokenID.Value != "",
				Label:      tok.Label(),
			})
		}
	}
	return rows
}

// FlattenPages flattens each page in order.
func FlattenPages(pages []*clob.SimplifiedMarketPage) []TokenRow {
	var rows []TokenRow
	for _, p := range pages {
		rows = append(rows, FlattenSimplified(p)...)
	}
	return rows
}

// FlattenMarkets does the same for full /markets objects.
func FlattenMarkets(markets []*clob.Market) []TokenRow {
	var rows []TokenRow
	for _, m := range markets {
		if m == nil {
			continue
		}
		for _, tok := range m.Tokens {
			rows = append(rows, TokenRow{
				MarketID:   m.ConditionID,
				Active:     bool(m.Active),
				Closed:     bool(m.Closed),
				TokenID:    tok.TokenID.Value,
				HasTokenID: tok.TokenID.Valid && tok.TokenID.Value != "",
				Label:      tok.Outcome,
			})
		}
	}
	return rows
}

// Live keeps rows that have a token id and belong to an open market.
func Live(rows []TokenRow) []TokenRow {
	live := make([]TokenRow, 0, len(rows))
	for _, r := range rows {
		if r.HasTokenID && !r.Closed {
			live = append(live, r)
		}
	}
	return live
}
