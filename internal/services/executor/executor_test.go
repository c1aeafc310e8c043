package executor

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/recallagent/rebalancer/internal/clients"
	"github.com/recallagent/rebalancer/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeExchange struct {
	balance    decimal.Decimal
	balanceErr error
	result     clients.TradeResult
	tradeErr   error
	submitted  *clients.TradeRequest
}

func (f *fakeExchange) GetBalance(_ context.Context, _ common.Address) (decimal.Decimal, error) {
	return f.balance, f.balanceErr
}

func (f *fakeExchange) ExecuteTrade(_ context.Context, req clients.TradeRequest) (clients.TradeResult, error) {
	f.submitted = &req
	return f.result, f.tradeErr
}

type fakeReasoner struct {
	reason string
	err    error
}

func (f *fakeReasoner) TradeReason(_ context.Context, _ domain.ValidatedTrade) (string, error) {
	return f.reason, f.err
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

func testTrade() domain.ValidatedTrade {
	return domain.ValidatedTrade{
		From:   "USDC",
		To:     "WETH",
		Amount: decimal.NewFromInt(100),
	}
}

func TestExecute(t *testing.T) {
	exchange := &fakeExchange{
		balance: decimal.NewFromInt(1000),
		result: clients.TradeResult{
			TransactionID: "tx-1",
			FromAmount:    decimal.NewFromInt(100),
			ToAmount:      decimal.NewFromFloat(0.04),
		},
	}
	e := NewExecutor(exchange, testRegistry(t), nil, zap.NewNop())

	record, err := e.Execute(context.Background(), testTrade())
	require.NoError(t, err)

	require.Equal(t, domain.TradeStatusSuccess, record.Status)
	require.Equal(t, "tx-1", record.TransactionID)
	require.True(t, record.CounterAmount.Equal(decimal.NewFromFloat(0.04)))
	require.NotEmpty(t, record.ID)
	require.Empty(t, record.Error)

	require.NotNil(t, exchange.submitted)
	require.True(t, exchange.submitted.Amount.Equal(decimal.NewFromInt(100)))
	require.NotEmpty(t, exchange.submitted.Reason)
}

func TestExecute_InsufficientBalance(t *testing.T) {
	exchange := &fakeExchange{balance: decimal.NewFromInt(50)}
	e := NewExecutor(exchange, testRegistry(t), nil, zap.NewNop())

	record, err := e.Execute(context.Background(), testTrade())

	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	require.Equal(t, domain.TradeStatusFailed, record.Status)
	require.NotEmpty(t, record.Error)
	require.Nil(t, exchange.submitted, "trade must not reach the exchange")
}

func TestExecute_SubmissionFailure(t *testing.T) {
	exchange := &fakeExchange{
		balance:  decimal.NewFromInt(1000),
		tradeErr: errors.Wrap(domain.ErrAPIError, "trade rejected"),
	}
	e := NewExecutor(exchange, testRegistry(t), nil, zap.NewNop())

	record, err := e.Execute(context.Background(), testTrade())

	// a collaborator failure is fully described by the failed record
	require.NoError(t, err)
	require.Equal(t, domain.TradeStatusFailed, record.Status)
	require.Contains(t, record.Error, "trade rejected")
}

func TestExecute_BalanceCheckFailure(t *testing.T) {
	exchange := &fakeExchange{balanceErr: errors.Wrap(domain.ErrNetworkFailure, "timeout")}
	e := NewExecutor(exchange, testRegistry(t), nil, zap.NewNop())

	record, err := e.Execute(context.Background(), testTrade())

	require.NoError(t, err)
	require.Equal(t, domain.TradeStatusFailed, record.Status)
	require.Nil(t, exchange.submitted)
}

func TestExecute_ReasonGeneration(t *testing.T) {
	t.Run("generated reason used", func(t *testing.T) {
		exchange := &fakeExchange{balance: decimal.NewFromInt(1000)}
		e := NewExecutor(exchange, testRegistry(t), &fakeReasoner{reason: "spread capture on USDC/WETH"}, zap.NewNop())

		record, err := e.Execute(context.Background(), testTrade())
		require.NoError(t, err)
		require.Equal(t, "spread capture on USDC/WETH", record.Reason)
	})

	t.Run("generator failure falls back", func(t *testing.T) {
		exchange := &fakeExchange{balance: decimal.NewFromInt(1000)}
		e := NewExecutor(exchange, testRegistry(t), &fakeReasoner{err: errors.New("model unavailable")}, zap.NewNop())

		record, err := e.Execute(context.Background(), testTrade())
		require.NoError(t, err)
		require.Contains(t, record.Reason, "Rebalancing")
	})
}
