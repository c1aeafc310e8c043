// Package detector scans market snapshots for rule-triggered trading
// opportunities.
package detector

import (
	"fmt"

	"github.com/recallagent/rebalancer/internal/domain"
	"github.com/shopspring/decimal"
)

// Thresholds fixed detection parameters.
type Thresholds struct {
	// ArbitrageSpreadPercent relative stablecoin spread that triggers
	// arbitrage, in percent (0.3 means 0.3%).
	ArbitrageSpreadPercent decimal.Decimal
	// HighPriceBand price above which the volatile token is sold.
	HighPriceBand decimal.Decimal
	// LowPriceBand price below which the volatile token is bought.
	LowPriceBand decimal.Decimal
	// MinBalanceForAction minimum funding-stable balance for arbitrage.
	MinBalanceForAction decimal.Decimal
	// DustThreshold minimum volatile balance worth selling.
	DustThreshold decimal.Decimal
	// FundingThreshold minimum stable balance for value buying.
	FundingThreshold decimal.Decimal
}

// Detector applies a fixed rule set over one snapshot. Pure: it never
// calls external systems and emits nothing outside its explicit rules.
type Detector struct {
	// fundingStable designated stable token funding arbitrage and buys.
	fundingStable domain.Symbol
	// altStable second stable token watched for arbitrage spread.
	altStable domain.Symbol
	// volatile designated volatile token for the mean-reversion rules.
	volatile   domain.Symbol
	thresholds Thresholds
}

// NewDetector creates a detector for the designated tokens.
func NewDetector(fundingStable, altStable, volatile domain.Symbol, thresholds Thresholds) *Detector {
	return &Detector{
		fundingStable: fundingStable,
		altStable:     altStable,
		volatile:      volatile,
		thresholds:    thresholds,
	}
}

// Detect returns opportunities in detection order; the list may be empty.
func (d *Detector) Detect(snap domain.MarketSnapshot) []domain.Opportunity {
	var opportunities []domain.Opportunity

	if opp, ok := d.detectArbitrage(snap); ok {
		opportunities = append(opportunities, opp)
	}
	if opp, ok := d.detectMeanReversion(snap); ok {
		opportunities = append(opportunities, opp)
	}

	return opportunities
}

// detectArbitrage fires when the funding stable can be swapped into the
// second stable at a discount wider than the configured spread.
func (d *Detector) detectArbitrage(snap domain.MarketSnapshot) (domain.Opportunity, bool) {
	fundingBalance := snap.Balance(d.fundingStable)
	if fundingBalance.LessThan(d.thresholds.MinBalanceForAction) {
		return domain.Opportunity{}, false
	}

	fundingPrice := snap.Price(d.fundingStable)
	altPrice := snap.Price(d.altStable)
	if fundingPrice.IsZero() || altPrice.IsZero() {
		return domain.Opportunity{}, false
	}

	spreadFraction := d.thresholds.ArbitrageSpreadPercent.Div(decimal.NewFromInt(100))
	trigger := fundingPrice.Mul(decimal.NewFromInt(1).Sub(spreadFraction))
	if altPrice.GreaterThanOrEqual(trigger) {
		return domain.Opportunity{}, false
	}

	spread := fundingPrice.Sub(altPrice).Div(fundingPrice).Mul(decimal.NewFromInt(100))
	return domain.Opportunity{
		Kind:       domain.OpportunityArbitrage,
		From:       d.fundingStable,
		To:         d.altStable,
		Confidence: domain.ConfidenceHigh,
		Rationale:  fmt.Sprintf("%s cheaper than %s by %s%%", d.altStable, d.fundingStable, spread.StringFixed(3)),
	}, true
}

// detectMeanReversion fires profit taking above the high band and value
// buying below the low band. The two branches are mutually exclusive.
func (d *Detector) detectMeanReversion(snap domain.MarketSnapshot) (domain.Opportunity, bool) {
	price := snap.Price(d.volatile)

	switch {
	case price.GreaterThan(d.thresholds.HighPriceBand) && snap.Balance(d.volatile).GreaterThan(d.thresholds.DustThreshold):
		return domain.Opportunity{
			Kind:       domain.OpportunityProfitTaking,
			From:       d.volatile,
			To:         d.fundingStable,
			Confidence: domain.ConfidenceMedium,
			Rationale:  fmt.Sprintf("%s high at $%s, take profits", d.volatile, price.StringFixed(2)),
		}, true
	case price.IsPositive() && price.LessThan(d.thresholds.LowPriceBand) && snap.Balance(d.fundingStable).GreaterThan(d.thresholds.FundingThreshold):
		return domain.Opportunity{
			Kind:       domain.OpportunityValueBuying,
			From:       d.fundingStable,
			To:         d.volatile,
			Confidence: domain.ConfidenceMedium,
			Rationale:  fmt.Sprintf("%s low at $%s, buying opportunity", d.volatile, price.StringFixed(2)),
		}, true
	}

	return domain.Opportunity{}, false
}
