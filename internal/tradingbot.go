// Package internal wires the rebalancing pipeline into the cycle loop.
package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/recallagent/rebalancer/internal/agent"
	"github.com/recallagent/rebalancer/internal/clients"
	"github.com/recallagent/rebalancer/internal/domain"
	"github.com/recallagent/rebalancer/internal/services/detector"
	"github.com/recallagent/rebalancer/internal/services/executor"
	"github.com/recallagent/rebalancer/internal/services/ledger"
	"github.com/recallagent/rebalancer/internal/services/risk"
	"github.com/recallagent/rebalancer/internal/services/snapshot"
	"github.com/recallagent/rebalancer/internal/storage/cycleevents"
	"go.uber.org/zap"
)

type leaderboardReader interface {
	GetLeaderboard(ctx context.Context) ([]clients.LeaderboardEntry, error)
}

// RebalancerBot runs the rebalancing pipeline: build snapshot, detect
// opportunities, assess risk, decide, validate, execute, record. One full
// cycle completes before the next begins; cancellation takes effect
// between cycles.
type RebalancerBot struct {
	builder     *snapshot.Builder
	detector    *detector.Detector
	assessor    *risk.Assessor
	policy      *agent.Policy
	executor    *executor.Executor
	ledger      *ledger.Ledger
	events      *cycleevents.WALStore
	leaderboard leaderboardReader
	registry    *domain.Registry
	limits      domain.TradeLimits
	interval    time.Duration
	backoff     time.Duration
	logger      *zap.Logger
}

// BotDeps dependencies of the rebalancer bot.
type BotDeps struct {
	Builder     *snapshot.Builder
	Detector    *detector.Detector
	Assessor    *risk.Assessor
	Policy      *agent.Policy
	Executor    *executor.Executor
	Ledger      *ledger.Ledger
	Events      *cycleevents.WALStore
	Leaderboard leaderboardReader
	Registry    *domain.Registry
	Limits      domain.TradeLimits
	Interval    time.Duration
	Backoff     time.Duration
}

// NewRebalancerBot creates a bot instance.
func NewRebalancerBot(deps BotDeps, logger *zap.Logger) (*RebalancerBot, error) {
	if deps.Builder == nil || deps.Detector == nil || deps.Assessor == nil ||
		deps.Policy == nil || deps.Executor == nil || deps.Ledger == nil {
		return nil, errors.New("missing pipeline dependency")
	}
	if deps.Interval <= 0 {
		return nil, errors.New("cycle interval must be positive")
	}
	if deps.Backoff <= 0 || deps.Backoff >= deps.Interval {
		return nil, errors.New("error backoff must be positive and shorter than the cycle interval")
	}

	return &RebalancerBot{
		builder:     deps.Builder,
		detector:    deps.Detector,
		assessor:    deps.Assessor,
		policy:      deps.Policy,
		executor:    deps.Executor,
		ledger:      deps.Ledger,
		events:      deps.Events,
		leaderboard: deps.Leaderboard,
		registry:    deps.Registry,
		limits:      deps.Limits,
		interval:    deps.Interval,
		backoff:     deps.Backoff,
		logger:      logger,
	}, nil
}

// Run executes cycles until the context is cancelled. A failed cycle is
// logged, the loop waits the backoff interval and restarts the cycle from
// scratch; no partial cycle state survives.
func (b *RebalancerBot) Run(ctx context.Context) error {
	b.logger.Info("starting rebalancing loop",
		zap.Duration("interval", b.interval),
		zap.Duration("backoff", b.backoff))

	for {
		wait := b.interval
		if err := b.RunCycle(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			b.logger.Error("cycle failed, backing off", zap.Error(err))
			wait = b.backoff
		}

		select {
		case <-ctx.Done():
			b.logger.Info("context done, stopping rebalancing loop")
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// RunCycle executes one full rebalancing cycle.
func (b *RebalancerBot) RunCycle(ctx context.Context) error {
	snap, err := b.builder.Build(ctx)
	if err != nil {
		return errors.Wrap(err, "build snapshot")
	}

	if err := b.ledger.RecordSnapshot(snap); err != nil {
		// in-memory state is intact; persistence is retried on the next mutation
		b.logger.Error("snapshot persistence failed", zap.Error(err))
	}

	report := b.assessor.Assess(snap)
	opportunities := b.detector.Detect(snap)

	b.logger.Info("cycle state",
		zap.String("total_value", snap.TotalValue.StringFixed(2)),
		zap.String("tier", report.Tier.String()),
		zap.String("max_concentration", report.MaxConcentration.StringFixed(3)),
		zap.Int("opportunities", len(opportunities)))

	b.publishEvent(domain.CycleEvent{
		Timestamp:  snap.Timestamp,
		Type:       domain.CycleEventSnapshot,
		TotalValue: snap.TotalValue.StringFixed(2),
		Tier:       report.Tier.String(),
	})
	for _, opp := range opportunities {
		b.publishEvent(domain.CycleEvent{
			Timestamp: snap.Timestamp,
			Type:      domain.CycleEventOpportunity,
			Detail:    fmt.Sprintf("%s (%s): %s", opp.Kind, opp.Confidence, opp.Rationale),
		})
	}

	proposal, ok := b.policy.Decide(opportunities, report)
	if !ok {
		b.logger.Info("no actionable opportunity this cycle")
		b.logLeaderboard(ctx)
		return nil
	}

	validated, err := domain.SizeTrade(proposal, snap, b.registry, b.limits)
	if err != nil {
		if reason, isRejection := domain.RejectionOf(err); isRejection {
			b.logger.Warn("trade proposal rejected",
				zap.String("proposal", proposal.String()),
				zap.String("reason", string(reason)))
			b.logLeaderboard(ctx)
			return nil
		}
		return errors.Wrap(err, "size trade")
	}

	record, execErr := b.executor.Execute(ctx, validated)
	if execErr != nil && errors.Is(execErr, domain.ErrInsufficientBalance) {
		b.logger.Warn("balance dropped below trade amount since validation", zap.Error(execErr))
	}

	if err := b.ledger.RecordTrade(record); err != nil {
		b.logger.Error("trade persistence failed", zap.Error(err))
	}

	b.publishEvent(domain.CycleEvent{
		Timestamp: record.Timestamp,
		Type:      domain.CycleEventTrade,
		Detail: fmt.Sprintf("%s: %s %s -> %s (%s)",
			record.Status, record.Amount.StringFixed(4), record.From, record.To, record.Reason),
	})

	b.logLeaderboard(ctx)
	return nil
}

func (b *RebalancerBot) publishEvent(event domain.CycleEvent) {
	if b.events == nil {
		return
	}
	if err := b.events.Save(event); err != nil {
		b.logger.Warn("failed to publish cycle event", zap.Error(err))
	}
}

// logLeaderboard reports competition standing. Informational only; any
// failure is logged and never fails the cycle.
func (b *RebalancerBot) logLeaderboard(ctx context.Context) {
	if b.leaderboard == nil {
		return
	}

	entries, err := b.leaderboard.GetLeaderboard(ctx)
	if err != nil {
		b.logger.Debug("leaderboard unavailable", zap.Error(err))
		return
	}
	if len(entries) == 0 {
		return
	}

	top := entries[0]
	b.logger.Info("competition leaderboard",
		zap.Int("participants", len(entries)),
		zap.String("top_agent", top.AgentID),
		zap.Float64("top_return", top.TotalReturn),
		zap.Float64("top_sharpe", top.SharpeRatio))
}
