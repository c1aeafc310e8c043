// Package risk computes concentration and exposure metrics from snapshots.
package risk

import (
	"github.com/recallagent/rebalancer/internal/domain"
	"github.com/shopspring/decimal"
)

// Tier breakpoints on the maximum single-token concentration.
var (
	mediumBreakpoint = decimal.NewFromFloat(0.5)
	highBreakpoint   = decimal.NewFromFloat(0.7)
)

// Assessor derives a risk report from a snapshot. Pure and stateless; the
// stable/volatile partition comes from the registry configuration, never
// inferred from prices.
type Assessor struct {
	registry *domain.Registry
}

// NewAssessor creates an assessor over the configured token universe.
func NewAssessor(registry *domain.Registry) *Assessor {
	return &Assessor{registry: registry}
}

// Assess computes per-token concentrations, exposures and the risk tier.
// A zero-valued portfolio yields all-zero concentrations and LOW tier.
func (a *Assessor) Assess(snap domain.MarketSnapshot) domain.RiskReport {
	report := domain.RiskReport{
		Concentrations:   make(map[domain.Symbol]decimal.Decimal),
		MaxConcentration: decimal.Zero,
		StableExposure:   decimal.Zero,
		VolatileExposure: decimal.Zero,
		Tier:             domain.RiskLow,
	}

	if snap.TotalValue.IsZero() {
		for _, sym := range a.registry.Symbols() {
			report.Concentrations[sym] = decimal.Zero
		}
		return report
	}

	for _, sym := range a.registry.Symbols() {
		concentration := snap.Value(sym).Div(snap.TotalValue)
		report.Concentrations[sym] = concentration

		if concentration.GreaterThan(report.MaxConcentration) {
			report.MaxConcentration = concentration
			report.MaxToken = sym
		}

		token, err := a.registry.Resolve(sym)
		if err != nil {
			continue
		}
		if token.Volatile {
			report.VolatileExposure = report.VolatileExposure.Add(concentration)
		} else {
			report.StableExposure = report.StableExposure.Add(concentration)
		}
	}

	switch {
	case report.MaxConcentration.GreaterThan(highBreakpoint):
		report.Tier = domain.RiskHigh
	case report.MaxConcentration.GreaterThan(mediumBreakpoint):
		report.Tier = domain.RiskMedium
	default:
		report.Tier = domain.RiskLow
	}

	return report
}
