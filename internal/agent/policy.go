package agent

import (
	"github.com/recallagent/rebalancer/internal/domain"
	"github.com/shopspring/decimal"
)

// Policy fixed decision rule turning detected opportunities and the risk
// report into at most one trade proposal per cycle. It stands where the
// original system placed an LLM agent; the boundary is the same.
type Policy struct {
	// tradePercent percentage of balance proposed for every trade.
	tradePercent decimal.Decimal
}

// NewPolicy creates a policy proposing the given percentage per trade.
func NewPolicy(tradePercent decimal.Decimal) *Policy {
	return &Policy{tradePercent: tradePercent}
}

// Decide picks the first opportunity that does not worsen an already HIGH
// concentration risk. Returns false when no opportunity is actionable.
func (p *Policy) Decide(opportunities []domain.Opportunity, report domain.RiskReport) (domain.TradeProposal, bool) {
	for _, opp := range opportunities {
		// buying more of the most concentrated token at HIGH tier would
		// only deepen the concentration
		if report.Tier == domain.RiskHigh && opp.To == report.MaxToken {
			continue
		}

		return domain.TradeProposal{
			From:       opp.From,
			To:         opp.To,
			Percentage: p.tradePercent,
		}, true
	}

	return domain.TradeProposal{}, false
}
