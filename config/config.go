// Package config loads the agent configuration from YAML and flags.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/recallagent/rebalancer/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Defaults mirror the original competition agent parameters.
const (
	DefaultAPIURL        = "https://api.sandbox.competitions.recall.network"
	DefaultLedgerPath    = "data/portfolio_history.json"
	DefaultEventsDir     = "wal/cycle"
	DefaultWebAddr       = ":8087"
	DefaultLLMAPIURL     = "https://openrouter.ai/api/v1/chat/completions"
	DefaultLLMModel      = "deepseek/deepseek-v3.2-exp"
	DefaultCycleInterval = 30 * time.Minute
	DefaultErrorBackoff  = 5 * time.Minute
)

// TokenConfig one entry of the token universe.
type TokenConfig struct {
	Symbol   string `yaml:"symbol"`
	Address  string `yaml:"address"`
	Volatile bool   `yaml:"volatile"`
}

// Config runtime configuration of the rebalancing agent.
type Config struct {
	APIURL string
	Tokens []TokenConfig

	// FundingStable stable token funding arbitrage and value buys.
	FundingStable string
	// AltStable second stable token watched for arbitrage spread.
	AltStable string
	// VolatileToken token traded on the mean-reversion price bands.
	VolatileToken string

	ArbitrageSpreadPercent decimal.Decimal
	HighPriceBand          decimal.Decimal
	LowPriceBand           decimal.Decimal
	DustThreshold          decimal.Decimal
	FundingThreshold       decimal.Decimal

	MaxTradePercent decimal.Decimal
	MinTradeAmount  decimal.Decimal
	// TradePercent percentage of balance proposed per trade.
	TradePercent decimal.Decimal

	CycleInterval time.Duration
	ErrorBackoff  time.Duration

	LedgerPath string
	EventsDir  string
	WebAddr    string

	LLMAPIURL string
	LLMModel  string
}

type configYaml struct {
	APIURL                 string        `yaml:"api_url"`
	Tokens                 []TokenConfig `yaml:"tokens"`
	FundingStable          string        `yaml:"funding_stable"`
	AltStable              string        `yaml:"alt_stable"`
	VolatileToken          string        `yaml:"volatile_token"`
	ArbitrageSpreadPercent string        `yaml:"arbitrage_spread_percent,omitempty"`
	HighPriceBand          string        `yaml:"high_price_band,omitempty"`
	LowPriceBand           string        `yaml:"low_price_band,omitempty"`
	DustThreshold          string        `yaml:"dust_threshold,omitempty"`
	FundingThreshold       string        `yaml:"funding_threshold,omitempty"`
	MaxTradePercent        string        `yaml:"max_trade_percent,omitempty"`
	MinTradeAmount         string        `yaml:"min_trade_amount,omitempty"`
	TradePercent           string        `yaml:"trade_percent,omitempty"`
	CycleInterval          time.Duration `yaml:"cycle_interval,omitempty"`
	ErrorBackoff           time.Duration `yaml:"error_backoff,omitempty"`
	LedgerPath             string        `yaml:"ledger_path,omitempty"`
	EventsDir              string        `yaml:"events_dir,omitempty"`
	WebAddr                string        `yaml:"web_addr,omitempty"`
	LLMAPIURL              string        `yaml:"llm_api_url,omitempty"`
	LLMModel               string        `yaml:"llm_model,omitempty"`
}

// Default returns the configuration of the original competition agent:
// a USDC/DAI/WETH universe on Ethereum mainnet addresses.
func Default() Config {
	return Config{
		APIURL: DefaultAPIURL,
		Tokens: []TokenConfig{
			{Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"},
			{Symbol: "DAI", Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F"},
			{Symbol: "WETH", Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Volatile: true},
		},
		FundingStable:          "USDC",
		AltStable:              "DAI",
		VolatileToken:          "WETH",
		ArbitrageSpreadPercent: decimal.NewFromFloat(0.3),
		HighPriceBand:          decimal.NewFromInt(2600),
		LowPriceBand:           decimal.NewFromInt(2400),
		DustThreshold:          decimal.NewFromFloat(0.01),
		FundingThreshold:       decimal.NewFromInt(100),
		MaxTradePercent:        decimal.NewFromInt(30),
		MinTradeAmount:         decimal.NewFromInt(1),
		TradePercent:           decimal.NewFromInt(10),
		CycleInterval:          DefaultCycleInterval,
		ErrorBackoff:           DefaultErrorBackoff,
		LedgerPath:             DefaultLedgerPath,
		EventsDir:              DefaultEventsDir,
		WebAddr:                DefaultWebAddr,
		LLMAPIURL:              DefaultLLMAPIURL,
		LLMModel:               DefaultLLMModel,
	}
}

// Load reads a YAML config file on top of the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	conf := Default()
	if path == "" {
		return conf, conf.Validate()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var y configYaml
	if err := yaml.Unmarshal(raw, &y); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if y.APIURL != "" {
		conf.APIURL = y.APIURL
	}
	if len(y.Tokens) > 0 {
		conf.Tokens = y.Tokens
	}
	if y.FundingStable != "" {
		conf.FundingStable = y.FundingStable
	}
	if y.AltStable != "" {
		conf.AltStable = y.AltStable
	}
	if y.VolatileToken != "" {
		conf.VolatileToken = y.VolatileToken
	}
	if y.CycleInterval > 0 {
		conf.CycleInterval = y.CycleInterval
	}
	if y.ErrorBackoff > 0 {
		conf.ErrorBackoff = y.ErrorBackoff
	}
	if y.LedgerPath != "" {
		conf.LedgerPath = y.LedgerPath
	}
	if y.EventsDir != "" {
		conf.EventsDir = y.EventsDir
	}
	if y.WebAddr != "" {
		conf.WebAddr = y.WebAddr
	}
	if y.LLMAPIURL != "" {
		conf.LLMAPIURL = y.LLMAPIURL
	}
	if y.LLMModel != "" {
		conf.LLMModel = y.LLMModel
	}

	decimals := []struct {
		raw  string
		name string
		dst  *decimal.Decimal
	}{
		{y.ArbitrageSpreadPercent, "arbitrage_spread_percent", &conf.ArbitrageSpreadPercent},
		{y.HighPriceBand, "high_price_band", &conf.HighPriceBand},
		{y.LowPriceBand, "low_price_band", &conf.LowPriceBand},
		{y.DustThreshold, "dust_threshold", &conf.DustThreshold},
		{y.FundingThreshold, "funding_threshold", &conf.FundingThreshold},
		{y.MaxTradePercent, "max_trade_percent", &conf.MaxTradePercent},
		{y.MinTradeAmount, "min_trade_amount", &conf.MinTradeAmount},
		{y.TradePercent, "trade_percent", &conf.TradePercent},
	}
	for _, d := range decimals {
		if d.raw == "" {
			continue
		}
		value, err := decimal.NewFromString(d.raw)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect '%s' param in yaml config: %w", d.name, err)
		}
		*d.dst = value
	}

	return conf, conf.Validate()
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url is required")
	}
	if len(c.Tokens) == 0 {
		return fmt.Errorf("token universe is empty")
	}

	symbols := make(map[string]bool, len(c.Tokens))
	for _, t := range c.Tokens {
		symbols[t.Symbol] = true
	}
	for _, designated := range []struct{ name, symbol string }{
		{"funding_stable", c.FundingStable},
		{"alt_stable", c.AltStable},
		{"volatile_token", c.VolatileToken},
	} {
		if !symbols[designated.symbol] {
			return fmt.Errorf("%s %q is not part of the token universe", designated.name, designated.symbol)
		}
	}

	if c.ArbitrageSpreadPercent.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("arbitrage_spread_percent must be positive")
	}
	if c.HighPriceBand.LessThanOrEqual(c.LowPriceBand) {
		return fmt.Errorf("high_price_band must exceed low_price_band")
	}
	if c.MaxTradePercent.LessThanOrEqual(decimal.Zero) || c.MaxTradePercent.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("max_trade_percent must be in (0, 100]")
	}
	if c.TradePercent.LessThanOrEqual(decimal.Zero) || c.TradePercent.GreaterThan(c.MaxTradePercent) {
		return fmt.Errorf("trade_percent must be in (0, max_trade_percent]")
	}
	if c.MinTradeAmount.LessThan(decimal.Zero) {
		return fmt.Errorf("min_trade_amount must not be negative")
	}
	if c.CycleInterval <= 0 {
		return fmt.Errorf("cycle_interval must be positive")
	}
	if c.ErrorBackoff <= 0 || c.ErrorBackoff >= c.CycleInterval {
		return fmt.Errorf("error_backoff must be positive and shorter than cycle_interval")
	}

	return nil
}

// TokenEntries converts the universe into domain registry entries.
func (c Config) TokenEntries() []domain.TokenEntry {
	entries := make([]domain.TokenEntry, 0, len(c.Tokens))
	for _, t := range c.Tokens {
		entries = append(entries, domain.TokenEntry{
			Symbol:   t.Symbol,
			Address:  t.Address,
			Volatile: t.Volatile,
		})
	}
	return entries
}
