package snapshot

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/recallagent/rebalancer/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProvider struct {
	balances map[common.Address]decimal.Decimal
	prices   map[common.Address]decimal.Decimal
	failFor  map[common.Address]bool
}

func (f *fakeProvider) GetBalance(_ context.Context, token common.Address) (decimal.Decimal, error) {
	if f.failFor[token] {
		return decimal.Zero, errors.Wrap(domain.ErrNetworkFailure, "balance read")
	}
	return f.balances[token], nil
}

func (f *fakeProvider) GetPrice(_ context.Context, token common.Address) (decimal.Decimal, error) {
	if f.failFor[token] {
		return decimal.Zero, errors.Wrap(domain.ErrNetworkFailure, "price read")
	}
	return f.prices[token], nil
}

func testRegistry(t *testing.T) *domain.Registry {
	t.Helper()
	reg, err := domain.NewRegistry([]domain.TokenEntry{
		{Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"},
		{Symbol: "WETH", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Volatile: true},
	})
	require.NoError(t, err)
	return reg
}

func addressOf(t *testing.T, reg *domain.Registry, sym domain.Symbol) common.Address {
	t.Helper()
	token, err := reg.Resolve(sym)
	require.NoError(t, err)
	return token.Address
}

func TestBuild(t *testing.T) {
	reg := testRegistry(t)
	usdc := addressOf(t, reg, "USDC")
	weth := addressOf(t, reg, "WETH")

	provider := &fakeProvider{
		balances: map[common.Address]decimal.Decimal{
			usdc: decimal.NewFromInt(1000),
			weth: decimal.NewFromFloat(0.5),
		},
		prices: map[common.Address]decimal.Decimal{
			usdc: decimal.NewFromInt(1),
			weth: decimal.NewFromInt(2700),
		},
	}

	snap, err := NewBuilder(provider, reg, zap.NewNop()).Build(context.Background())
	require.NoError(t, err)

	require.True(t, snap.Balance("USDC").Equal(decimal.NewFromInt(1000)))
	require.True(t, snap.Price("WETH").Equal(decimal.NewFromInt(2700)))
	require.True(t, snap.TotalValue.Equal(decimal.NewFromInt(2350)),
		"got %s", snap.TotalValue)
}

func TestBuild_FailedReadRecordsZero(t *testing.T) {
	reg := testRegistry(t)
	usdc := addressOf(t, reg, "USDC")
	weth := addressOf(t, reg, "WETH")

	provider := &fakeProvider{
		balances: map[common.Address]decimal.Decimal{usdc: decimal.NewFromInt(1000)},
		prices:   map[common.Address]decimal.Decimal{usdc: decimal.NewFromInt(1)},
		failFor:  map[common.Address]bool{weth: true},
	}

	snap, err := NewBuilder(provider, reg, zap.NewNop()).Build(context.Background())
	require.NoError(t, err)

	// the failed token is present with zeros, the rest is intact
	require.True(t, snap.Balance("WETH").IsZero())
	require.True(t, snap.Price("WETH").IsZero())
	require.True(t, snap.TotalValue.Equal(decimal.NewFromInt(1000)))
}

func TestBuild_CancelledContext(t *testing.T) {
	reg := testRegistry(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBuilder(&fakeProvider{}, reg, zap.NewNop()).Build(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
