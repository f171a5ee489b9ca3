// Package orderbook keeps a sorted depth view of one token's order book as
// returned by the CLOB /book endpoint.
package orderbook

import (
	"fmt"
	"time"

	"github.com/google/btree"

	"github.com/daszybak/marketscan/internal/polymarket/clob"
	"github.com/daszybak/marketscan/internal/price"
)

type Side string

const (
	Bids Side = "bids"
	Asks Side = "asks"
)

// Level is one price level of the book.
type Level struct {
	Price     price.Price
	Size      price.Size
	UpdatedAt time.Time
}

func lessAsc(a, b Level) bool {
	return a.Price < b.Price
}

func lessDesc(a, b Level) bool {
	return a.Price > b.Price
}

// Orderbook holds bids sorted highest first and asks sorted lowest first.
type Orderbook struct {
	bids *btree.BTreeG[Level]
	asks *btree.BTreeG[Level]
}

func New() *Orderbook {
	return &Orderbook{
		bids: btree.NewG(32, lessDesc),
		asks: btree.NewG(32, lessAsc),
	}
}

// FromSummary builds a book from the level lists of a /book response.
// Levels whose price or size does not parse are skipped and counted.
func FromSummary(bids, asks []clob.OrderSummary, at time.Time) (*Orderbook, int) {
	ob := New()
	skipped := 0
	for _, side := range []struct {
		side   Side
		levels []clob.OrderSummary
	}{{Bids, bids}, {Asks, asks}} {
		for _, lvl := range side.levels {
			p, err := price.Parse(lvl.Price)
			if err != nil {
				skipped++
				continue
			}
			s, err := price.ParseSize(lvl.Size)
			if err != nil {
				skipped++
				continue
			}
			// Side is always valid here.
			_ = ob.Set(p, s, side.side, at)
		}
	}
	return ob, skipped
}

// Set sets an absolute size at a price level. A size <= 0 removes the level.
func (ob *Orderbook) Set(p price.Price, size price.Size, side Side, eventTime time.Time) error {
	tree, err := ob.getTree(side)
	if err != nil {
		return err
	}

	if size <= 0 {
		tree.Delete(Level{Price: p})
		return nil
	}

	tree.ReplaceOrInsert(Level{Price: p, Size: size, UpdatedAt: eventTime})
	return nil
}

// Update applies a delta to a price level. The level is removed once its
// size drops to zero or below.
func (ob *Orderbook) Update(p price.Price, delta price.Size, side Side, eventTime time.Time) error {
	tree, err := ob.getTree(side)
	if err != nil {
		return err
	}

	newSize := delta
	if existing, found := tree.Get(Level{Price: p}); found {
		newSize = existing.Size + delta
	}

	if newSize <= 0 {
		tree.Delete(Level{Price: p})
		return nil
	}

	tree.ReplaceOrInsert(Level{Price: p, Size: newSize, UpdatedAt: eventTime})
	return nil
}

func (ob *Orderbook) BestBid() (Level, bool) {
	return ob.bids.Min()
}

func (ob *Orderbook) BestAsk() (Level, bool) {
	return ob.asks.Min()
}

// Spread is best ask minus best bid. ok is false when either side is empty.
func (ob *Orderbook) Spread() (spread price.Price, ok bool) {
	bid, ok := ob.BestBid()
	if !ok {
		return 0, false
	}
	ask, ok := ob.BestAsk()
	if !ok {
		return 0, false
	}
	return ask.Price - bid.Price, true
}

// GetTopN returns up to n levels for a side, best price first.
func (ob *Orderbook) GetTopN(side Side, n int) ([]Level, error) {
	tree, err := ob.getTree(side)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}

	levels := make([]Level, 0, min(n, tree.Len()))
	tree.Ascend(func(lvl Level) bool {
		levels = append(levels, lvl)
		return len(levels) < n
	})

	return levels, nil
}

func (ob *Orderbook) Len(side Side) int {
	tree, err := ob.getTree(side)
	if err != nil {
		return 0
	}
	return tree.Len()
}

func (ob *Orderbook) getTree(side Side) (*btree.BTreeG[Level], error) {
	switch side {
	case Bids:
		return ob.bids, nil
	case Asks:
		return ob.asks, nil
	default:
		return nil, fmt.Errorf("invalid side: %s", side)
	}
}
