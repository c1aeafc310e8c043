package domain

import "github.com/shopspring/decimal"

// RiskTier qualitative portfolio risk level.
type RiskTier int

const (
	RiskLow RiskTier = iota
	RiskMedium
	RiskHigh
)

// String returns the string representation of the risk tier.
func (t RiskTier) String() string {
	switch t {
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	default:
		return "unknown"
	}
}

// RiskReport concentration and exposure metrics derived from a single
// snapshot. Stateless; a zero-valued portfolio reports all-zero
// concentrations and the LOW tier by convention.
type RiskReport struct {
	Concentrations   map[Symbol]decimal.Decimal
	MaxConcentration decimal.Decimal
	// MaxToken the most concentrated token; empty for a zero-valued portfolio.
	MaxToken         Symbol
	StableExposure   decimal.Decimal
	VolatileExposure decimal.Decimal
	Tier             RiskTier
}
