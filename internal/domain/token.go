// Package domain defines core data structures used throughout the rebalancing agent.
package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Symbol token symbol from the configured universe.
type Symbol string

// Token describes one entry of the token universe.
type Token struct {
	// Symbol ticker symbol, e.g. USDC.
	Symbol Symbol
	// Address on-chain contract address.
	Address common.Address
	// Volatile marks non-stable assets for exposure accounting.
	Volatile bool
}

// TokenEntry raw universe entry before address validation.
type TokenEntry struct {
	Symbol   string
	Address  string
	Volatile bool
}

// Registry fixed symbol->address universe. Unknown symbols are rejected
// at every boundary; the registry never grows after construction.
type Registry struct {
	tokens map[Symbol]Token
	order  []Symbol
}

// NewRegistry builds a registry from raw entries, validating addresses.
func NewRegistry(entries []TokenEntry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, errors.New("token universe is empty")
	}

	tokens := make(map[Symbol]Token, len(entries))
	order := make([]Symbol, 0, len(entries))

	for _, e := range entries {
		if e.Symbol == "" {
			return nil, errors.New("token symbol is required")
		}
		if !common.IsHexAddress(e.Address) {
			return nil, fmt.Errorf("invalid address for token %s: %s", e.Symbol, e.Address)
		}

		sym := Symbol(e.Symbol)
		if _, exists := tokens[sym]; exists {
			return nil, fmt.Errorf("duplicate token symbol: %s", sym)
		}

		tokens[sym] = Token{
			Symbol:   sym,
			Address:  common.HexToAddress(e.Address),
			Volatile: e.Volatile,
		}
		order = append(order, sym)
	}

	return &Registry{tokens: tokens, order: order}, nil
}

// Contains reports whether the symbol belongs to the universe.
func (r *Registry) Contains(sym Symbol) bool {
	_, ok := r.tokens[sym]
	return ok
}

// Resolve returns the token for a symbol or an UnsupportedToken rejection.
func (r *Registry) Resolve(sym Symbol) (Token, error) {
	token, ok := r.tokens[sym]
	if !ok {
		return Token{}, NewValidationError(RejectionUnsupportedToken, fmt.Sprintf("unknown token symbol: %s", sym))
	}
	return token, nil
}

// Symbols returns all symbols in configuration order.
func (r *Registry) Symbols() []Symbol {
	out := make([]Symbol, len(r.order))
	copy(out, r.order)
	return out
}

// StableSymbols returns the non-volatile partition in configuration order.
func (r *Registry) StableSymbols() []Symbol {
	return r.partition(false)
}

// VolatileSymbols returns the volatile partition in configuration order.
func (r *Registry) VolatileSymbols() []Symbol {
	return r.partition(true)
}

func (r *Registry) partition(volatile bool) []Symbol {
	out := make([]Symbol, 0, len(r.order))
	for _, sym := range r.order {
		if r.tokens[sym].Volatile == volatile {
			out = append(out, sym)
		}
	}
	return out
}
