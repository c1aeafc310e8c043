// Package agent exposes the fixed decision boundary: analysis tools an
// external decision maker may call, and the built-in rule policy.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/recallagent/rebalancer/internal/domain"
	"github.com/recallagent/rebalancer/internal/services/detector"
	"github.com/recallagent/rebalancer/internal/services/executor"
	"github.com/recallagent/rebalancer/internal/services/ledger"
	"github.com/recallagent/rebalancer/internal/services/risk"
	"github.com/recallagent/rebalancer/internal/services/snapshot"
	"github.com/shopspring/decimal"
)

// Toolset fixed interface the decision step works against. Every method
// is pure/idempotent over current market state except ExecuteTrade.
type Toolset interface {
	GetPortfolioAnalysis(ctx context.Context) (string, error)
	GetMarketAnalysis(ctx context.Context) (string, error)
	AnalyzeOpportunities(ctx context.Context) ([]domain.Opportunity, error)
	AssessRisk(ctx context.Context) (domain.RiskReport, error)
	ExecuteTrade(ctx context.Context, proposal domain.TradeProposal) (domain.TradeRecord, error)
}

// Tools implements Toolset over the pipeline components. Each call reads
// a fresh snapshot, matching the one-call-one-read contract of the
// original tool boundary.
type Tools struct {
	builder  *snapshot.Builder
	detector *detector.Detector
	assessor *risk.Assessor
	executor *executor.Executor
	ledger   *ledger.Ledger
	registry *domain.Registry
	limits   domain.TradeLimits
}

// NewTools wires the pipeline components into a Toolset.
func NewTools(
	builder *snapshot.Builder,
	det *detector.Detector,
	assessor *risk.Assessor,
	exec *executor.Executor,
	ldgr *ledger.Ledger,
	registry *domain.Registry,
	limits domain.TradeLimits,
) *Tools {
	return &Tools{
		builder:  builder,
		detector: det,
		assessor: assessor,
		executor: exec,
		ledger:   ldgr,
		registry: registry,
		limits:   limits,
	}
}

// GetPortfolioAnalysis returns a formatted overview of balances, values
// and performance.
func (t *Tools) GetPortfolioAnalysis(ctx context.Context) (string, error) {
	snap, err := t.builder.Build(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "PORTFOLIO ANALYSIS\n")
	fmt.Fprintf(&b, "Total value: $%s\n", snap.TotalValue.StringFixed(2))
	fmt.Fprintf(&b, "Total performance: %s%%\n", t.ledger.PerformanceTotal().StringFixed(2))
	fmt.Fprintf(&b, "24h performance: %s%%\n", t.ledger.Performance24h().StringFixed(2))

	for _, sym := range t.registry.Symbols() {
		value := snap.Value(sym)
		share := decimal.Zero
		if !snap.TotalValue.IsZero() {
			share = value.Div(snap.TotalValue).Mul(decimal.NewFromInt(100))
		}
		fmt.Fprintf(&b, "%s: %s ($%s, %s%%)\n",
			sym, snap.Balance(sym).StringFixed(4), value.StringFixed(2), share.StringFixed(1))
	}

	return b.String(), nil
}

// GetMarketAnalysis returns formatted current prices for the universe.
func (t *Tools) GetMarketAnalysis(ctx context.Context) (string, error) {
	snap, err := t.builder.Build(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "MARKET ANALYSIS\n")
	for _, sym := range t.registry.Symbols() {
		fmt.Fprintf(&b, "%s: $%s\n", sym, snap.Price(sym).StringFixed(4))
	}

	for _, opp := range t.detector.Detect(snap) {
		fmt.Fprintf(&b, "signal: %s (%s) %s\n", opp.Kind, opp.Confidence, opp.Rationale)
	}

	return b.String(), nil
}

// AnalyzeOpportunities scans a fresh snapshot with the fixed rule set.
func (t *Tools) AnalyzeOpportunities(ctx context.Context) ([]domain.Opportunity, error) {
	snap, err := t.builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	return t.detector.Detect(snap), nil
}

// AssessRisk computes the risk report for a fresh snapshot.
func (t *Tools) AssessRisk(ctx context.Context) (domain.RiskReport, error) {
	snap, err := t.builder.Build(ctx)
	if err != nil {
		return domain.RiskReport{}, err
	}
	return t.assessor.Assess(snap), nil
}

// ExecuteTrade sizes, validates and submits a proposal, recording the
// outcome in the ledger.
func (t *Tools) ExecuteTrade(ctx context.Context, proposal domain.TradeProposal) (domain.TradeRecord, error) {
	snap, err := t.builder.Build(ctx)
	if err != nil {
		return domain.TradeRecord{}, err
	}

	validated, err := domain.SizeTrade(proposal, snap, t.registry, t.limits)
	if err != nil {
		return domain.TradeRecord{}, err
	}

	record, execErr := t.executor.Execute(ctx, validated)
	if err := t.ledger.RecordTrade(record); err != nil {
		return record, err
	}
	return record, execErr
}
