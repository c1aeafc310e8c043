package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/recallagent/rebalancer/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	usdcAddr = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	wethAddr = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

func TestGetPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/price", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.Equal(t, wethAddr.Hex(), r.URL.Query().Get("token"))
		require.Equal(t, "evm", r.URL.Query().Get("chain"))

		json.NewEncoder(w).Encode(map[string]any{"success": true, "price": 2700.5})
	}))
	defer srv.Close()

	price, err := NewRecallClient(srv.URL, "test-key").GetPrice(context.Background(), wethAddr)
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.NewFromFloat(2700.5)), "got %s", price)
}

func TestGetBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/balance", r.URL.Path)
		require.Equal(t, usdcAddr.Hex(), r.URL.Query().Get("token"))

		json.NewEncoder(w).Encode(map[string]any{"success": true, "balance": 1000})
	}))
	defer srv.Close()

	balance, err := NewRecallClient(srv.URL, "test-key").GetBalance(context.Background(), usdcAddr)
	require.NoError(t, err)
	require.True(t, balance.Equal(decimal.NewFromInt(1000)))
}

func TestGetPortfolio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/agent/portfolio", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]any{
			"success":    true,
			"totalValue": 2350,
			"tokens": []map[string]any{
				{"symbol": "usdc", "amount": 1000, "value": 1000},
				{"symbol": "WETH", "amount": 0.5, "value": 1350},
			},
		})
	}))
	defer srv.Close()

	portfolio, err := NewRecallClient(srv.URL, "test-key").GetPortfolio(context.Background())
	require.NoError(t, err)
	require.True(t, portfolio.TotalValue.Equal(decimal.NewFromInt(2350)))
	require.Len(t, portfolio.Tokens, 2)
	require.Equal(t, "USDC", portfolio.Tokens[0].Symbol, "symbols are normalized to upper case")
}

func TestExecuteTrade(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/trade/execute", r.URL.Path)

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, usdcAddr.Hex(), payload["fromToken"])
		require.Equal(t, wethAddr.Hex(), payload["toToken"])
		require.Equal(t, "100", payload["amount"])
		require.NotEmpty(t, payload["reason"])

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"transaction": map[string]any{
				"id":         "tx-42",
				"fromAmount": 100,
				"toAmount":   0.037,
			},
		})
	}))
	defer srv.Close()

	result, err := NewRecallClient(srv.URL, "test-key").ExecuteTrade(context.Background(), TradeRequest{
		FromToken: usdcAddr,
		ToToken:   wethAddr,
		Amount:    decimal.NewFromInt(100),
		Reason:    "stablecoin spread capture",
	})
	require.NoError(t, err)
	require.Equal(t, "tx-42", result.TransactionID)
	require.True(t, result.ToAmount.Equal(decimal.NewFromFloat(0.037)))
}

func TestExecuteTrade_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "insufficient funds"})
	}))
	defer srv.Close()

	_, err := NewRecallClient(srv.URL, "test-key").ExecuteTrade(context.Background(), TradeRequest{
		FromToken: usdcAddr,
		ToToken:   wethAddr,
		Amount:    decimal.NewFromInt(100),
	})
	require.ErrorIs(t, err, domain.ErrAPIError)
	require.Contains(t, err.Error(), "insufficient funds")
}

func TestExecuteTrade_NotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewRecallClient(srv.URL, "test-key").ExecuteTrade(context.Background(), TradeRequest{
		FromToken: usdcAddr,
		ToToken:   wethAddr,
		Amount:    decimal.NewFromInt(100),
	})
	require.ErrorIs(t, err, domain.ErrAPIError)
	require.Equal(t, 1, calls, "a failed submission must not be resubmitted")
}

func TestGetPrice_RetriesOnServerError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "price": 2500})
	}))
	defer srv.Close()

	price, err := NewRecallClient(srv.URL, "test-key").GetPrice(context.Background(), wethAddr)
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.NewFromInt(2500)))
	require.Equal(t, 3, calls)
}

func TestGetPrice_APIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "token not found"})
	}))
	defer srv.Close()

	_, err := NewRecallClient(srv.URL, "test-key").GetPrice(context.Background(), wethAddr)
	require.ErrorIs(t, err, domain.ErrAPIError)
}

func TestGetPrice_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewRecallClient(srv.URL, "test-key").GetPrice(context.Background(), wethAddr)
	require.ErrorIs(t, err, domain.ErrNetworkFailure)
}
