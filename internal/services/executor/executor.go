// Package executor submits validated trades to the exchange and produces
// trade records.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/recallagent/rebalancer/internal/clients"
	"github.com/recallagent/rebalancer/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type exchange interface {
	GetBalance(ctx context.Context, token common.Address) (decimal.Decimal, error)
	ExecuteTrade(ctx context.Context, req clients.TradeRequest) (clients.TradeResult, error)
}

// Executor hands a validated trade to the exchange collaborator. It never
// retries a submission; retry policy belongs to the caller.
type Executor struct {
	exchange exchange
	registry *domain.Registry
	// reasoner optional rationale generator; nil disables it and its
	// failure never blocks submission.
	reasoner clients.ReasonGenerator
	logger   *zap.Logger
}

// NewExecutor creates a trade executor.
func NewExecutor(exchange exchange, registry *domain.Registry, reasoner clients.ReasonGenerator, logger *zap.Logger) *Executor {
	return &Executor{
		exchange: exchange,
		registry: registry,
		reasoner: reasoner,
		logger:   logger,
	}
}

// Execute submits the trade and returns its record. The record always
// describes the outcome, success or failed; the error is additionally
// non-nil when the balance dropped below the trade amount since
// validation (errors.Is(err, domain.ErrInsufficientBalance)).
func (e *Executor) Execute(ctx context.Context, trade domain.ValidatedTrade) (domain.TradeRecord, error) {
	record := domain.TradeRecord{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		From:      trade.From,
		To:        trade.To,
		Amount:    trade.Amount,
		Status:    domain.TradeStatusFailed,
	}

	fromToken, err := e.registry.Resolve(trade.From)
	if err != nil {
		record.Error = err.Error()
		return record, err
	}
	toToken, err := e.registry.Resolve(trade.To)
	if err != nil {
		record.Error = err.Error()
		return record, err
	}

	// Balance can change between validation and execution in a live
	// system; re-check right before submission.
	balance, err := e.exchange.GetBalance(ctx, fromToken.Address)
	if err != nil {
		record.Error = err.Error()
		e.logger.Error("pre-submission balance check failed", zap.Error(err))
		return record, nil
	}
	if balance.LessThan(trade.Amount) {
		err := errors.Wrapf(domain.ErrInsufficientBalance,
			"%s balance %s below trade amount %s", trade.From, balance, trade.Amount)
		record.Error = err.Error()
		return record, err
	}

	record.Reason = e.tradeReason(ctx, trade)

	result, err := e.exchange.ExecuteTrade(ctx, clients.TradeRequest{
		FromToken: fromToken.Address,
		ToToken:   toToken.Address,
		Amount:    trade.Amount,
		Reason:    record.Reason,
	})
	if err != nil {
		record.Error = err.Error()
		e.logger.Error("trade submission failed",
			zap.String("from", string(trade.From)),
			zap.String("to", string(trade.To)),
			zap.String("amount", trade.Amount.String()),
			zap.Error(err))
		return record, nil
	}

	record.Status = domain.TradeStatusSuccess
	record.TransactionID = result.TransactionID
	record.CounterAmount = result.ToAmount

	e.logger.Info("trade executed",
		zap.String("tx", result.TransactionID),
		zap.String("from", string(trade.From)),
		zap.String("to", string(trade.To)),
		zap.String("amount", trade.Amount.String()),
		zap.String("received", result.ToAmount.String()))

	return record, nil
}

// tradeReason asks the optional generator for a rationale, falling back
// to a deterministic description.
func (e *Executor) tradeReason(ctx context.Context, trade domain.ValidatedTrade) string {
	fallback := fmt.Sprintf("Rebalancing: swap %s %s into %s", trade.Amount.StringFixed(4), trade.From, trade.To)
	if e.reasoner == nil {
		return fallback
	}

	reason, err := e.reasoner.TradeReason(ctx, trade)
	if err != nil || reason == "" {
		e.logger.Warn("reason generation failed, using fallback", zap.Error(err))
		return fallback
	}
	return reason
}
