package orderbook

import (
	"testing"
	"time"

	"github.com/daszybak/marketscan/internal/polymarket/clob"
	"github.com/daszybak/marketscan/internal/price"
)

func mustPrice(t *testing.T, s string) price.Price {
	t.Helper()
	p, err := price.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return p
}

func TestFromSummary(t *testing.T) {
	bids := []clob.OrderSummary{
		{Price: "0.45", Size: "100"},
		{Price: "0.48", Size: "20.5"},
		{Price: "bad", Size: "1"},
	}
	asks := []clob.OrderSummary{
		{Price: "0.55", Size: "10"},
		{Price: "0.52", Size: "3"},
		{Price: "0.60", Size: ""},
	}

	ob, skipped := FromSummary(bids, asks, time.Unix(0, 0))
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
	if got := ob.Len(Bids); got != 2 {
		t.Errorf("Len(Bids) = %d, want 2", got)
	}
	if got := ob.Len(Asks); got != 2 {
		t.Errorf("Len(Asks) = %d, want 2", got)
	}

	bid, ok := ob.BestBid()
	if !ok || bid.Price != mustPrice(t, "0.48") {
		t.Errorf("BestBid() = %v, %v; want 0.48", bid.Price, ok)
	}
	ask, ok := ob.BestAsk()
	if !ok || ask.Price != mustPrice(t, "0.52") {
		t.Errorf("BestAsk() = %v, %v; want 0.52", ask.Price, ok)
	}
	spread, ok := ob.Spread()
	if !ok || spread != mustPrice(t, "0.04") {
		t.Errorf("Spread() = %v, %v; want 0.04", spread, ok)
	}
}

func TestSpreadEmptySide(t *testing.T) {
	ob := New()
	if err := ob.Set(mustPrice(t, "0.5"), 1, Bids, time.Now()); err != nil {
		t.Fatal(err)
	}
	if _, ok := ob.Spread(); ok {
		t.Error("Spread() ok = true with no asks")
	}
}

func TestSetAndUpdate(t *testing.T) {
	ob := New()
	p := mustPrice(t, "0.30")
	now := time.Now()

	if err := ob.Update(p, 5, Asks, now); err != nil {
		t.Fatal(err)
	}
	if err := ob.Update(p, 3, Asks, now); err != nil {
		t.Fatal(err)
	}
	top, err := ob.GetTopN(Asks, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 1 || top[0].Size != 8 {
		t.Fatalf("GetTopN = %+v, want one level of size 8", top)
	}

	if err := ob.Update(p, -8, Asks, now); err != nil {
		t.Fatal(err)
	}
	if ob.Len(Asks) != 0 {
		t.Errorf("level not removed after size reached zero")
	}

	if err := ob.Set(p, 4, Asks, now); err != nil {
		t.Fatal(err)
	}
	if err := ob.Set(p, 0, Asks, now); err != nil {
		t.Fatal(err)
	}
	if ob.Len(Asks) != 0 {
		t.Errorf("Set with zero size did not remove the level")
	}
}

func TestGetTopNOrder(t *testing.T) {
	ob := New()
	now := time.Now()
	for _, s := range []string{"0.1", "0.3", "0.2"} {
		if err := ob.Set(mustPrice(t, s), 1, Bids, now); err != nil {
			t.Fatal(err)
		}
		if err := ob.Set(mustPrice(t, s), 1, Asks, now); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		side Side
		n    int
		want []string
	}{
		{Bids, 2, []string{"0.3", "0.2"}},
		{Asks, 2, []string{"0.1", "0.2"}},
		{Asks, 10, []string{"0.1", "0.2", "0.3"}},
		{Bids, 0, nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.side), func(t *testing.T) {
			levels, err := ob.GetTopN(tt.side, tt.n)
			if err != nil {
				t.Fatal(err)
			}
			if len(levels) != len(tt.want) {
				t.Fatalf("got %d levels, want %d", len(levels), len(tt.want))
			}
			for i, w := range tt.want {
				if levels[i].Price != mustPrice(t, w) {
					t.Errorf("level %d = %v, want %s", i, levels[i].Price, w)
				}
			}
		})
	}
}

func TestInvalidSide(t *testing.T) {
	ob := New()
	if err := ob.Set(1, 1, Side("mid"), time.Now()); err == nil {
		t.Error("Set with invalid side returned nil error")
	}
	if _, err := ob.GetTopN(Side("mid"), 1); err == nil {
		t.Error("GetTopN with invalid side returned nil error")
	}
	if ob.Len(Side("mid")) != 0 {
		t.Error("Len with invalid side != 0")
	}
}

func TestFromSummaryOversizedLevel(t *testing.T) {
	asks := []clob.OrderSummary{
		{Price: "0.5", Size: "10000000000000"},
		{Price: "0.6", Size: "1"},
	}
	ob, skipped := FromSummary(nil, asks, time.Now())
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if ob.Len(Asks) != 1 {
		t.Errorf("Len(Asks) = %d, want 1", ob.Len(Asks))
	}
}
