// Package ledger accumulates snapshots and trade records over time and
// computes rolling and total performance.
package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/recallagent/rebalancer/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type assessor interface {
	Assess(snap domain.MarketSnapshot) domain.RiskReport
}

// SnapshotEntry persisted snapshot with performance computed at append time.
type SnapshotEntry struct {
	domain.MarketSnapshot
	Performance24h   decimal.Decimal `json:"performance24h"`
	PerformanceTotal decimal.Decimal `json:"performanceTotal"`
}

type document struct {
	Snapshots []SnapshotEntry      `json:"snapshots"`
	Trades    []domain.TradeRecord `json:"trades"`
}

// Ledger durable, append-only record of snapshots and trade outcomes.
// Loaded in full at startup and rewritten in full after every mutation.
// The initial value used for total performance is the totalValue of the
// first snapshot ever recorded and is never recomputed.
type Ledger struct {
	path      string
	snapshots []SnapshotEntry
	trades    []domain.TradeRecord
	assessor  assessor
	logger    *zap.Logger
}

// Load reads the persisted ledger document, returning an empty ledger
// when the file does not exist yet.
func Load(path string, assessor assessor, logger *zap.Logger) (*Ledger, error) {
	l := &Ledger{
		path:     path,
		assessor: assessor,
		logger:   logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, errors.Wrapf(domain.ErrPersistenceFailure, "read ledger %s: %v", path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(domain.ErrPersistenceFailure, "parse ledger %s: %v", path, err)
	}

	l.snapshots = doc.Snapshots
	l.trades = doc.Trades

	logger.Info("ledger loaded",
		zap.String("path", path),
		zap.Int("snapshots", len(l.snapshots)),
		zap.Int("trades", len(l.trades)))

	return l, nil
}

// RecordSnapshot appends a snapshot with its performance figures and
// persists the ledger. A persistence failure keeps the in-memory state
// and is retried on the next mutation.
func (l *Ledger) RecordSnapshot(snap domain.MarketSnapshot) error {
	entry := SnapshotEntry{MarketSnapshot: snap}
	if len(l.snapshots) > 0 {
		entry.PerformanceTotal = performance(l.initialValue(), snap.TotalValue)
		entry.Performance24h = l.performanceAgainstWindow(snap, snap.Timestamp.Add(-24*time.Hour))
	}

	l.snapshots = append(l.snapshots, entry)
	return l.persist()
}

// RecordTrade appends a trade record and persists the ledger.
func (l *Ledger) RecordTrade(record domain.TradeRecord) error {
	l.trades = append(l.trades, record)
	return l.persist()
}

// PerformanceTotal returns the percent change of the latest snapshot
// against the first snapshot ever recorded. Zero when the ledger is
// empty or the initial value is zero.
func (l *Ledger) PerformanceTotal() decimal.Decimal {
	if len(l.snapshots) == 0 {
		return decimal.Zero
	}
	return performance(l.initialValue(), l.latest().TotalValue)
}

// PerformanceSince compares the latest snapshot against the earliest
// snapshot recorded at or after the reference time. Zero when no such
// snapshot exists.
func (l *Ledger) PerformanceSince(reference time.Time) decimal.Decimal {
	if len(l.snapshots) == 0 {
		return decimal.Zero
	}
	return l.performanceAgainstWindow(l.latest().MarketSnapshot, reference)
}

// Performance24h returns the rolling 24-hour performance.
func (l *Ledger) Performance24h() decimal.Decimal {
	return l.PerformanceSince(time.Now().UTC().Add(-24 * time.Hour))
}

// CurrentTier returns the risk tier of the latest snapshot, LOW when the
// ledger is empty.
func (l *Ledger) CurrentTier() domain.RiskTier {
	if len(l.snapshots) == 0 {
		return domain.RiskLow
	}
	return l.assessor.Assess(l.latest().MarketSnapshot).Tier
}

// Snapshots returns the recorded snapshots in chronological order.
func (l *Ledger) Snapshots() []SnapshotEntry {
	out := make([]SnapshotEntry, len(l.snapshots))
	copy(out, l.snapshots)
	return out
}

// Trades returns the recorded trades in chronological order.
func (l *Ledger) Trades() []domain.TradeRecord {
	out := make([]domain.TradeRecord, len(l.trades))
	copy(out, l.trades)
	return out
}

func (l *Ledger) latest() SnapshotEntry {
	return l.snapshots[len(l.snapshots)-1]
}

func (l *Ledger) initialValue() decimal.Decimal {
	if len(l.snapshots) == 0 {
		return decimal.Zero
	}
	return l.snapshots[0].TotalValue
}

func (l *Ledger) performanceAgainstWindow(latest domain.MarketSnapshot, reference time.Time) decimal.Decimal {
	for _, entry := range l.snapshots {
		if !entry.Timestamp.Before(reference) {
			return performance(entry.TotalValue, latest.TotalValue)
		}
	}
	return decimal.Zero
}

// performance percent change from old to current; zero by convention
// when the old value is zero.
func performance(old, current decimal.Decimal) decimal.Decimal {
	if old.IsZero() {
		return decimal.Zero
	}
	return current.Sub(old).Div(old).Mul(decimal.NewFromInt(100))
}

// persist rewrites the whole document via write-temp-then-rename so a
// crash mid-write never leaves an unparsable file.
func (l *Ledger) persist() error {
	doc := document{Snapshots: l.snapshots, Trades: l.trades}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrapf(domain.ErrPersistenceFailure, "marshal ledger: %v", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(domain.ErrPersistenceFailure, "create ledger dir %s: %v", dir, err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(domain.ErrPersistenceFailure, "write ledger temp file: %v", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return errors.Wrapf(domain.ErrPersistenceFailure, "rename ledger file: %v", err)
	}

	return nil
}
