package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testEntries() []TokenEntry {
	return []TokenEntry{
		{Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"},
		{Symbol: "DAI", Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F"},
		{Symbol: "WETH", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Volatile: true},
	}
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(testEntries())
	require.NoError(t, err)

	require.Equal(t, []Symbol{"USDC", "DAI", "WETH"}, reg.Symbols())
	require.Equal(t, []Symbol{"USDC", "DAI"}, reg.StableSymbols())
	require.Equal(t, []Symbol{"WETH"}, reg.VolatileSymbols())
	require.True(t, reg.Contains("USDC"))
	require.False(t, reg.Contains("SHIB"))
}

func TestNewRegistry_InvalidAddress(t *testing.T) {
	_, err := NewRegistry([]TokenEntry{
		{Symbol: "USDC", Address: "not-an-address"},
	})
	require.Error(t, err)
}

func TestNewRegistry_DuplicateSymbol(t *testing.T) {
	_, err := NewRegistry([]TokenEntry{
		{Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"},
		{Symbol: "USDC", Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F"},
	})
	require.Error(t, err)
}

func TestNewRegistry_Empty(t *testing.T) {
	_, err := NewRegistry(nil)
	require.Error(t, err)
}

func TestRegistryResolve_UnknownSymbol(t *testing.T) {
	reg, err := NewRegistry(testEntries())
	require.NoError(t, err)

	_, err = reg.Resolve("SHIB")
	require.Error(t, err)

	reason, ok := RejectionOf(err)
	require.True(t, ok)
	require.Equal(t, RejectionUnsupportedToken, reason)
}
