package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeProposal proposed action before sizing and validation.
type TradeProposal struct {
	From Symbol
	To   Symbol
	// Percentage share of the from-token balance to trade, (0, 100].
	Percentage decimal.Decimal
}

// String returns a human-readable string representation.
func (p TradeProposal) String() string {
	return fmt.Sprintf("%s -> %s (%s%% of balance)", p.From, p.To, p.Percentage.String())
}

// ValidatedTrade sized, limit-checked trade ready for submission.
type ValidatedTrade struct {
	From   Symbol
	To     Symbol
	Amount decimal.Decimal
}

// TradeStatus outcome of a submitted trade.
type TradeStatus string

const (
	TradeStatusSuccess TradeStatus = "success"
	TradeStatusFailed  TradeStatus = "failed"
)

// TradeRecord append-only record of one trade outcome. Immutable once
// written; owned by the performance ledger.
type TradeRecord struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	From          Symbol          `json:"fromToken"`
	To            Symbol          `json:"toToken"`
	Amount        decimal.Decimal `json:"amount"`
	Status        TradeStatus     `json:"resultStatus"`
	TransactionID string          `json:"transactionId,omitempty"`
	CounterAmount decimal.Decimal `json:"counterAmount,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// TradeLimits configured bounds applied during sizing/validation.
type TradeLimits struct {
	// MaxTradePercentage upper bound on the percentage of balance per trade.
	MaxTradePercentage decimal.Decimal
	// MinTradeAmount lower bound on the sized amount.
	MinTradeAmount decimal.Decimal
}

// SizeTrade converts a proposal into a concrete trade amount and validates
// it against the configured limits. Checks run in a fixed order and the
// first failing check is the reported rejection. Pure and idempotent: the
// same proposal against the same snapshot always yields the same result.
func SizeTrade(proposal TradeProposal, snapshot MarketSnapshot, registry *Registry, limits TradeLimits) (ValidatedTrade, error) {
	if _, err := registry.Resolve(proposal.From); err != nil {
		return ValidatedTrade{}, err
	}
	if _, err := registry.Resolve(proposal.To); err != nil {
		return ValidatedTrade{}, err
	}
	if proposal.From == proposal.To {
		return ValidatedTrade{}, NewValidationError(RejectionUnsupportedToken,
			fmt.Sprintf("from and to token are the same: %s", proposal.From))
	}

	if proposal.Percentage.LessThanOrEqual(decimal.Zero) || proposal.Percentage.GreaterThan(limits.MaxTradePercentage) {
		return ValidatedTrade{}, NewValidationError(RejectionPercentageOutOfRange,
			fmt.Sprintf("percentage %s%% outside (0, %s%%]", proposal.Percentage, limits.MaxTradePercentage))
	}

	amount := snapshot.Balance(proposal.From).Mul(proposal.Percentage).Div(decimal.NewFromInt(100))
	if amount.LessThan(limits.MinTradeAmount) {
		return ValidatedTrade{}, NewValidationError(RejectionAmountTooSmall,
			fmt.Sprintf("amount %s %s below minimum %s", amount, proposal.From, limits.MinTradeAmount))
	}

	return ValidatedTrade{From: proposal.From, To: proposal.To, Amount: amount}, nil
}
