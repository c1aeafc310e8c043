// Package setup provides the terminal configuration wizard.
package setup

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/recallagent/rebalancer/config"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

type wizardYaml struct {
	APIURL                 string `yaml:"api_url"`
	ArbitrageSpreadPercent string `yaml:"arbitrage_spread_percent"`
	HighPriceBand          string `yaml:"high_price_band"`
	LowPriceBand           string `yaml:"low_price_band"`
	MaxTradePercent        string `yaml:"max_trade_percent"`
	TradePercent           string `yaml:"trade_percent"`
	CycleInterval          string `yaml:"cycle_interval"`
	ErrorBackoff           string `yaml:"error_backoff"`
	LedgerPath             string `yaml:"ledger_path"`
	WebAddr                string `yaml:"web_addr"`
	LLMAPIURL              string `yaml:"llm_api_url,omitempty"`
	LLMModel               string `yaml:"llm_model,omitempty"`
}

// RunTUI launches the terminal configuration wizard and writes the
// resulting YAML config file.
func RunTUI() error {
	defaults := config.Default()

	var (
		apiURL       = defaults.APIURL
		spreadStr    = defaults.ArbitrageSpreadPercent.String()
		highBandStr  = defaults.HighPriceBand.String()
		lowBandStr   = defaults.LowPriceBand.String()
		maxPctStr    = defaults.MaxTradePercent.String()
		tradePctStr  = defaults.TradePercent.String()
		intervalStr  = defaults.CycleInterval.String()
		backoffStr   = defaults.ErrorBackoff.String()
		ledgerPath   = defaults.LedgerPath
		webAddr      = defaults.WebAddr
		useLLM       bool
		llmAPIURL    = defaults.LLMAPIURL
		llmModel     = defaults.LLMModel
		outPath      = "config.yaml"
		confirmWrite bool
	)

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("REBALANCER CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Configure your portfolio-rebalancing agent.\n"))

	fmt.Println(stepStyle.Render("STEP 1: EXCHANGE"))
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Recall API URL").Value(&apiURL),
		),
	).Run(); err != nil {
		return err
	}

	fmt.Println(stepStyle.Render("STEP 2: STRATEGY THRESHOLDS"))
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Stablecoin arbitrage spread, %").Value(&spreadStr).Validate(validateDecimal),
			huh.NewInput().Title("Volatile high price band, $").Value(&highBandStr).Validate(validateDecimal),
			huh.NewInput().Title("Volatile low price band, $").Value(&lowBandStr).Validate(validateDecimal),
			huh.NewInput().Title("Max trade percent of balance").Value(&maxPctStr).Validate(validateDecimal),
			huh.NewInput().Title("Proposed trade percent").Value(&tradePctStr).Validate(validateDecimal),
		),
	).Run(); err != nil {
		return err
	}

	fmt.Println(stepStyle.Render("STEP 3: TIMING & STORAGE"))
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Cycle interval (e.g. 30m)").Value(&intervalStr).Validate(validateDuration),
			huh.NewInput().Title("Error backoff (e.g. 5m)").Value(&backoffStr).Validate(validateDuration),
			huh.NewInput().Title("Ledger file path").Value(&ledgerPath),
			huh.NewInput().Title("Dashboard listen address").Value(&webAddr),
		),
	).Run(); err != nil {
		return err
	}

	fmt.Println(stepStyle.Render("STEP 4: TRADE REASONS (OPTIONAL)"))
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title("Generate trade reasons with an LLM?").Value(&useLLM),
		),
	).Run(); err != nil {
		return err
	}
	if useLLM {
		if err := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("LLM API URL").Value(&llmAPIURL),
				huh.NewInput().Title("LLM model").Value(&llmModel),
			),
		).Run(); err != nil {
			return err
		}
	}

	fmt.Println(stepStyle.Render("STEP 5: SAVE"))
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Config file path").Value(&outPath),
			huh.NewConfirm().Title("Write config?").Value(&confirmWrite),
		),
	).Run(); err != nil {
		return err
	}
	if !confirmWrite {
		fmt.Println("aborted, nothing written")
		return nil
	}

	out := wizardYaml{
		APIURL:                 apiURL,
		ArbitrageSpreadPercent: spreadStr,
		HighPriceBand:          highBandStr,
		LowPriceBand:           lowBandStr,
		MaxTradePercent:        maxPctStr,
		TradePercent:           tradePctStr,
		CycleInterval:          intervalStr,
		ErrorBackoff:           backoffStr,
		LedgerPath:             ledgerPath,
		WebAddr:                webAddr,
	}
	if useLLM {
		out.LLMAPIURL = llmAPIURL
		out.LLMModel = llmModel
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render("config written to " + outPath))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("set RECALL_API_KEY (and LLM_API_KEY if enabled) before starting"))
	return nil
}

func validateDecimal(s string) error {
	_, err := decimal.NewFromString(s)
	return err
}

func validateDuration(s string) error {
	_, err := time.ParseDuration(s)
	return err
}
