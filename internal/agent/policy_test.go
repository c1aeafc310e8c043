package agent

import (
	"testing"

	"github.com/recallagent/rebalancer/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	p := NewPolicy(decimal.NewFromInt(10))

	opportunities := []domain.Opportunity{
		{Kind: domain.OpportunityArbitrage, From: "USDC", To: "DAI", Confidence: domain.ConfidenceHigh},
		{Kind: domain.OpportunityProfitTaking, From: "WETH", To: "USDC", Confidence: domain.ConfidenceMedium},
	}

	proposal, ok := p.Decide(opportunities, domain.RiskReport{Tier: domain.RiskLow})
	require.True(t, ok)
	require.Equal(t, domain.Symbol("USDC"), proposal.From)
	require.Equal(t, domain.Symbol("DAI"), proposal.To)
	require.True(t, proposal.Percentage.Equal(decimal.NewFromInt(10)))
}

func TestDecide_NoOpportunities(t *testing.T) {
	p := NewPolicy(decimal.NewFromInt(10))

	_, ok := p.Decide(nil, domain.RiskReport{Tier: domain.RiskLow})
	require.False(t, ok)
}

func TestDecide_SkipsConcentratingTradeAtHighTier(t *testing.T) {
	p := NewPolicy(decimal.NewFromInt(10))

	opportunities := []domain.Opportunity{
		{Kind: domain.OpportunityValueBuying, From: "USDC", To: "WETH", Confidence: domain.ConfidenceMedium},
		{Kind: domain.OpportunityArbitrage, From: "USDC", To: "DAI", Confidence: domain.ConfidenceHigh},
	}
	report := domain.RiskReport{Tier: domain.RiskHigh, MaxToken: "WETH"}

	proposal, ok := p.Decide(opportunities, report)
	require.True(t, ok)
	require.Equal(t, domain.Symbol("DAI"), proposal.To, "WETH buy must be skipped at HIGH tier")
}

func TestDecide_AllOpportunitiesConcentrating(t *testing.T) {
	p := NewPolicy(decimal.NewFromInt(10))

	opportunities := []domain.Opportunity{
		{Kind: domain.OpportunityValueBuying, From: "USDC", To: "WETH", Confidence: domain.ConfidenceMedium},
	}
	report := domain.RiskReport{Tier: domain.RiskHigh, MaxToken: "WETH"}

	_, ok := p.Decide(opportunities, report)
	require.False(t, ok)
}
