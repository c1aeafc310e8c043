// Package clients contains HTTP clients for external collaborators.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/recallagent/rebalancer/internal/domain"
	"github.com/recallagent/rebalancer/pkg/retrier"
	"github.com/shopspring/decimal"
)

const (
	defaultExchangeTimeout = 30 * time.Second
	defaultChain           = "evm"
	defaultSpecificChain   = "eth"
)

// Portfolio exchange-reported portfolio state.
type Portfolio struct {
	TotalValue decimal.Decimal
	Tokens     []PortfolioToken
}

// PortfolioToken one token position inside a portfolio response.
type PortfolioToken struct {
	Symbol string
	Amount decimal.Decimal
	Value  decimal.Decimal
}

// TradeRequest order submitted to the exchange.
type TradeRequest struct {
	FromToken common.Address
	ToToken   common.Address
	Amount    decimal.Decimal
	Reason    string
}

// TradeResult fill reported by the exchange.
type TradeResult struct {
	TransactionID string
	FromAmount    decimal.Decimal
	ToAmount      decimal.Decimal
}

// LeaderboardEntry one row of the competition leaderboard.
type LeaderboardEntry struct {
	AgentID     string  `json:"agentId"`
	TotalReturn float64 `json:"totalReturn"`
	SharpeRatio float64 `json:"sharpeRatio"`
}

// RecallClient talks to the Recall competition REST API. All requests are
// bearer-token authenticated. Read calls are retried with backoff; trade
// submission is attempted exactly once.
type RecallClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retrier    *retrier.Retrier
}

// NewRecallClient creates a client for the given API base URL.
func NewRecallClient(baseURL, apiKey string) *RecallClient {
	return &RecallClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultExchangeTimeout,
		},
		retrier: retrier.New(
			retrier.WithInitialInterval(time.Second),
			retrier.WithMaxRetries(2),
		),
	}
}

type portfolioResponse struct {
	Success    bool            `json:"success"`
	TotalValue decimal.Decimal `json:"totalValue"`
	Tokens     []struct {
		Symbol string          `json:"symbol"`
		Amount decimal.Decimal `json:"amount"`
		Value  decimal.Decimal `json:"value"`
	} `json:"tokens"`
	Error string `json:"error,omitempty"`
}

// GetPortfolio fetches the full portfolio state.
func (c *RecallClient) GetPortfolio(ctx context.Context) (Portfolio, error) {
	return retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) (Portfolio, error) {
		var resp portfolioResponse
		if err := c.getJSON(ctx, "/api/agent/portfolio", nil, &resp); err != nil {
			return Portfolio{}, err
		}
		if !resp.Success {
			return Portfolio{}, errors.Wrapf(domain.ErrAPIError, "portfolio: %s", resp.Error)
		}

		portfolio := Portfolio{TotalValue: resp.TotalValue}
		for _, t := range resp.Tokens {
			portfolio.Tokens = append(portfolio.Tokens, PortfolioToken{
				Symbol: strings.ToUpper(t.Symbol),
				Amount: t.Amount,
				Value:  t.Value,
			})
		}
		return portfolio, nil
	})
}

type balanceResponse struct {
	Success bool            `json:"success"`
	Balance decimal.Decimal `json:"balance"`
	Error   string          `json:"error,omitempty"`
}

// GetBalance fetches the balance for one token address.
func (c *RecallClient) GetBalance(ctx context.Context, token common.Address) (decimal.Decimal, error) {
	return retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) (decimal.Decimal, error) {
		params := url.Values{}
		params.Set("token", token.Hex())
		params.Set("chain", defaultChain)

		var resp balanceResponse
		if err := c.getJSON(ctx, "/api/balance", params, &resp); err != nil {
			return decimal.Zero, err
		}
		if !resp.Success {
			return decimal.Zero, errors.Wrapf(domain.ErrAPIError, "balance for %s: %s", token.Hex(), resp.Error)
		}
		return resp.Balance, nil
	})
}

type priceResponse struct {
	Success bool            `json:"success"`
	Price   decimal.Decimal `json:"price"`
	Error   string          `json:"error,omitempty"`
}

// GetPrice fetches the current USD price for one token address.
func (c *RecallClient) GetPrice(ctx context.Context, token common.Address) (decimal.Decimal, error) {
	return retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) (decimal.Decimal, error) {
		params := url.Values{}
		params.Set("token", token.Hex())
		params.Set("chain", defaultChain)
		params.Set("specificChain", defaultSpecificChain)

		var resp priceResponse
		if err := c.getJSON(ctx, "/api/price", params, &resp); err != nil {
			return decimal.Zero, err
		}
		if !resp.Success {
			return decimal.Zero, errors.Wrapf(domain.ErrAPIError, "price for %s: %s", token.Hex(), resp.Error)
		}
		return resp.Price, nil
	})
}

type tradeResponse struct {
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	Transaction struct {
		ID         string          `json:"id"`
		FromAmount decimal.Decimal `json:"fromAmount"`
		ToAmount   decimal.Decimal `json:"toAmount"`
	} `json:"transaction"`
}

// ExecuteTrade submits a trade for execution. Never retried: retry policy
// for submissions belongs to the caller.
func (c *RecallClient) ExecuteTrade(ctx context.Context, req TradeRequest) (TradeResult, error) {
	payload := map[string]string{
		"fromToken": req.FromToken.Hex(),
		"toToken":   req.ToToken.Hex(),
		"amount":    req.Amount.String(),
		"reason":    req.Reason,
	}

	var resp tradeResponse
	if err := c.postJSON(ctx, "/api/trade/execute", payload, &resp); err != nil {
		return TradeResult{}, err
	}
	if !resp.Success {
		return TradeResult{}, errors.Wrapf(domain.ErrAPIError, "trade rejected: %s", resp.Error)
	}

	return TradeResult{
		TransactionID: resp.Transaction.ID,
		FromAmount:    resp.Transaction.FromAmount,
		ToAmount:      resp.Transaction.ToAmount,
	}, nil
}

type leaderboardResponse struct {
	Success     bool               `json:"success"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	Error       string             `json:"error,omitempty"`
}

// GetLeaderboard fetches the competition leaderboard. Informational only.
func (c *RecallClient) GetLeaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	return retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) ([]LeaderboardEntry, error) {
		var resp leaderboardResponse
		if err := c.getJSON(ctx, "/api/competition/leaderboard", nil, &resp); err != nil {
			return nil, err
		}
		if !resp.Success {
			return nil, errors.Wrapf(domain.ErrAPIError, "leaderboard: %s", resp.Error)
		}
		return resp.Leaderboard, nil
	})
}

func (c *RecallClient) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create HTTP request")
	}

	return c.do(req, out)
}

func (c *RecallClient) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(string(body)))
	if err != nil {
		return errors.Wrap(err, "failed to create HTTP request")
	}

	return c.do(req, out)
}

func (c *RecallClient) do(req *http.Request, out any) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(domain.ErrNetworkFailure, "%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(domain.ErrNetworkFailure, "read response from %s: %v", req.URL.Path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(domain.ErrAPIError, "%s returned status %d: %s", req.URL.Path, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(domain.ErrAPIError, "decode response from %s: %v", req.URL.Path, err)
	}

	return nil
}
