package gamma

import (
	"encoding/json"
	"math"

	"github.com/daszybak/marketscan/internal/polymarket/jsontype"
	"github.com/daszybak/marketscan/internal/price"
)

type Token struct {
	TokenID jsontype.OptString `json:"token_id"`
	Outcome string             `json:"outcome"`
	Price   jsontype.Float     `json:"price"`
	Winner  jsontype.Bool      `json:"winner"`
}

// Market is a Gamma market. Gamma mixes camelCase and snake_case keys across
// versions; UnmarshalJSON accepts both for the fields that have moved.
type Market struct {
	ID            jsontype.OptString  `json:"id"`
	Question      string              `json:"question"`
	ConditionID   string              `json:"conditionId"`
	Slug          string              `json:"slug"`
	Category      string              `json:"category"`
	Active        jsontype.Bool       `json:"active"`
	Closed        jsontype.Bool       `json:"closed"`
	Volume        price.Amount        `json:"volume"`
	Volume24hr    price.Amount        `json:"volume24hr"`
	Liquidity     price.Amount        `json:"liquidity"`
	EndDateISO    string              `json:"endDateIso"`
	Outcomes      jsontype.StringList `json:"outcomes"`
	OutcomePrices jsontype.StringList `json:"outcomePrices"`
	ClobTokenIDs  jsontype.StringList `json:"clobTokenIds"`
	Tokens        []Token             `json:"tokens"`

	// Raw holds the market exactly as received.
	Raw json.RawMessage `json:"-"`
}

type marketFields Market

func (m *Market) UnmarshalJSON(data []byte) error {
	var v struct {
		marketFields
		ConditionIDSnake  string              `json:"condition_id"`
		Volume24hrSnake   *price.Amount       `json:"volume_24hr"`
		EndDateISOSnake   string              `json:"end_date_iso"`
		EndDate           string              `json:"endDate"`
		ClobTokenIDsSnake jsontype.StringList `json:"clob_token_ids"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	*m = Market(v.marketFields)
	if m.ConditionID == "" {
		m.ConditionID = v.ConditionIDSnake
	}
	if v.Volume24hrSnake != nil && m.Volume24hr.IsZero() {
		m.Volume24hr = *v.Volume24hrSnake
	}
	if m.EndDateISO == "" {
		m.EndDateISO = v.EndDateISOSnake
	}
	if m.EndDateISO == "" {
		m.EndDateISO = v.EndDate
	}
	if len(m.ClobTokenIDs) == 0 {
		m.ClobTokenIDs = v.ClobTokenIDsSnake
	}
	m.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON writes the market as it was received when possible.
func (m *Market) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	return json.Marshal((*marketFields)(m))
}

// Outcome is one priced outcome of a market.
type Outcome struct {
	Label   string
	TokenID string
	// Price is NaN when the market carries no price for the outcome.
	Price  float64
	Winner bool
}

// OutcomeList pairs outcome labels with token ids and prices. Embedded
// tokens win; otherwise the parallel outcomes / clobTokenIds /
// outcomePrices arrays are zipped by index. Outcomes beyond the embedded
// tokens are still listed, priced from the arrays when they can be.
func (m *Market) OutcomeList() []Outcome {
	n := max(len(m.Tokens), len(m.Outcomes))
	out := make([]Outcome, 0, n)
	for i := range n {
		if i < len(m.Tokens) {
			t := m.Tokens[i]
			label := t.Outcome
			if label == "" && i < len(m.Outcomes) {
				label = m.Outcomes[i]
			}
			out = append(out, Outcome{
				Label:   label,
				TokenID: t.TokenID.Value,
				Price:   float64(t.Price),
				Winner:  bool(t.Winner),
			})
			continue
		}
		out = append(out, m.zippedOutcome(i))
	}
	return out
}

func (m *Market) zippedOutcome(i int) Outcome {
	o := Outcome{Label: m.Outcomes[i], Price: math.NaN()}
	if i < len(m.ClobTokenIDs) {
		o.TokenID = m.ClobTokenIDs[i]
	}
	if i < len(m.OutcomePrices) {
		o.Price = price.ParseFloat(m.OutcomePrices[i])
	}
	return o
}

// ImpliedProbability sums the finite outcome prices. ok is false when no
// outcome is priced.
func (m *Market) ImpliedProbability() (total float64, ok bool) {
	for _, o := range m.OutcomeList() {
		if math.IsNaN(o.Price) || math.IsInf(o.Price, 0) {
			continue
		}
		total += o.Price
		ok = true
	}
	return total, ok
}
