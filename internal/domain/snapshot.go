package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketSnapshot point-in-time read of balances and prices across the
// token universe. Immutable after creation; every configured token has an
// entry (zero when the read failed), and TotalValue always equals the sum
// of balance*price over the universe.
type MarketSnapshot struct {
	Timestamp  time.Time                  `json:"timestamp"`
	Balances   map[Symbol]decimal.Decimal `json:"balances"`
	Prices     map[Symbol]decimal.Decimal `json:"prices"`
	TotalValue decimal.Decimal            `json:"totalValue"`
}

// NewMarketSnapshot builds a snapshot over the given universe. Missing
// balance or price entries default to zero so every symbol is present.
func NewMarketSnapshot(ts time.Time, symbols []Symbol, balances, prices map[Symbol]decimal.Decimal) MarketSnapshot {
	snap := MarketSnapshot{
		Timestamp: ts,
		Balances:  make(map[Symbol]decimal.Decimal, len(symbols)),
		Prices:    make(map[Symbol]decimal.Decimal, len(symbols)),
	}

	total := decimal.Zero
	for _, sym := range symbols {
		balance := balances[sym]
		price := prices[sym]
		snap.Balances[sym] = balance
		snap.Prices[sym] = price
		total = total.Add(balance.Mul(price))
	}
	snap.TotalValue = total

	return snap
}

// Balance returns the held amount of a token, zero for unknown symbols.
func (s MarketSnapshot) Balance(sym Symbol) decimal.Decimal {
	return s.Balances[sym]
}

// Price returns the recorded price of a token, zero for unknown symbols.
func (s MarketSnapshot) Price(sym Symbol) decimal.Decimal {
	return s.Prices[sym]
}

// Value returns balance*price for one token.
func (s MarketSnapshot) Value(sym Symbol) decimal.Decimal {
	return s.Balances[sym].Mul(s.Prices[sym])
}
