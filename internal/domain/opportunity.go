package domain

// OpportunityKind rule that triggered a candidate trade.
type OpportunityKind int

const (
	OpportunityArbitrage OpportunityKind = iota
	OpportunityProfitTaking
	OpportunityValueBuying
)

// kind string constants to avoid magic strings
const (
	kindStringArbitrage    = "arbitrage"
	kindStringProfitTaking = "profit_taking"
	kindStringValueBuying  = "value_buying"
)

// String returns the string representation of the opportunity kind.
func (k OpportunityKind) String() string {
	switch k {
	case OpportunityArbitrage:
		return kindStringArbitrage
	case OpportunityProfitTaking:
		return kindStringProfitTaking
	case OpportunityValueBuying:
		return kindStringValueBuying
	default:
		return "unknown"
	}
}

// Confidence qualitative confidence level of a detected opportunity.
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
)

// String returns the string representation of the confidence level.
func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "LOW"
	case ConfidenceMedium:
		return "MEDIUM"
	case ConfidenceHigh:
		return "HIGH"
	default:
		return "unknown"
	}
}

// Opportunity detected, rule-triggered candidate trading action. Produced
// fresh each cycle and consumed immediately; never persisted.
type Opportunity struct {
	Kind       OpportunityKind
	From       Symbol
	To         Symbol
	Confidence Confidence
	Rationale  string
}
