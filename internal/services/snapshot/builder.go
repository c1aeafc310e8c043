// Package snapshot builds per-cycle market snapshots from the exchange.
package snapshot

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/recallagent/rebalancer/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type provider interface {
	GetBalance(ctx context.Context, token common.Address) (decimal.Decimal, error)
	GetPrice(ctx context.Context, token common.Address) (decimal.Decimal, error)
}

// Builder pulls balances and prices for the whole token universe into an
// immutable snapshot once per cycle.
type Builder struct {
	provider provider
	registry *domain.Registry
	logger   *zap.Logger
}

// NewBuilder creates a snapshot builder over the given provider.
func NewBuilder(provider provider, registry *domain.Registry, logger *zap.Logger) *Builder {
	return &Builder{
		provider: provider,
		registry: registry,
		logger:   logger,
	}
}

// Build reads balance and price for every configured token. A failed read
// records zero for that token instead of aborting the snapshot; only
// context cancellation fails the whole build.
func (b *Builder) Build(ctx context.Context) (domain.MarketSnapshot, error) {
	balances := make(map[domain.Symbol]decimal.Decimal)
	prices := make(map[domain.Symbol]decimal.Decimal)

	for _, sym := range b.registry.Symbols() {
		if err := ctx.Err(); err != nil {
			return domain.MarketSnapshot{}, err
		}

		token, err := b.registry.Resolve(sym)
		if err != nil {
			return domain.MarketSnapshot{}, err
		}

		balance, err := b.provider.GetBalance(ctx, token.Address)
		if err != nil {
			b.logger.Warn("balance unavailable, recording zero",
				zap.String("token", string(sym)), zap.Error(err))
			balance = decimal.Zero
		}

		price, err := b.provider.GetPrice(ctx, token.Address)
		if err != nil {
			b.logger.Warn("price unavailable, recording zero",
				zap.String("token", string(sym)), zap.Error(err))
			price = decimal.Zero
		}

		balances[sym] = balance
		prices[sym] = price
	}

	snap := domain.NewMarketSnapshot(time.Now().UTC(), b.registry.Symbols(), balances, prices)

	b.logger.Debug("snapshot built",
		zap.Time("ts", snap.Timestamp),
		zap.String("total_value", snap.TotalValue.StringFixed(2)))

	return snap, nil
}
