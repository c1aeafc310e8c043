// Command rebalancer runs the autonomous portfolio-rebalancing agent
// against the Recall competition API.
//
// Usage:
//
//	rebalancer --config config.yaml
//	rebalancer --setup      (interactive config wizard)
//	rebalancer --analyze    (print portfolio/market analysis and exit)
//	rebalancer --once       (run a single cycle and exit)
//
// Required environment variables:
//
//	RECALL_API_KEY  bearer token for the exchange API
//	LLM_API_KEY     optional, enables LLM-generated trade reasons
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/recallagent/rebalancer/config"
	"github.com/recallagent/rebalancer/internal"
	"github.com/recallagent/rebalancer/internal/agent"
	"github.com/recallagent/rebalancer/internal/clients"
	"github.com/recallagent/rebalancer/internal/domain"
	"github.com/recallagent/rebalancer/internal/services/detector"
	"github.com/recallagent/rebalancer/internal/services/executor"
	"github.com/recallagent/rebalancer/internal/services/ledger"
	"github.com/recallagent/rebalancer/internal/services/risk"
	"github.com/recallagent/rebalancer/internal/services/snapshot"
	"github.com/recallagent/rebalancer/internal/setup"
	"github.com/recallagent/rebalancer/internal/storage/cycleevents"
	"github.com/recallagent/rebalancer/internal/web"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config")
	runSetup := flag.Bool("setup", false, "run the interactive config wizard")
	analyze := flag.Bool("analyze", false, "print portfolio and market analysis, then exit")
	once := flag.Bool("once", false, "run a single cycle, then exit")
	flag.Parse()

	if *runSetup {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}

	_ = godotenv.Load()

	conf, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	apiKey := os.Getenv("RECALL_API_KEY")
	if apiKey == "" {
		logger.Fatal("RECALL_API_KEY environment variable must be set")
	}

	registry, err := domain.NewRegistry(conf.TokenEntries())
	if err != nil {
		logger.Fatal("invalid token universe", zap.Error(err))
	}

	exchange := clients.NewRecallClient(conf.APIURL, apiKey)

	var reasoner clients.ReasonGenerator
	if llmKey := os.Getenv("LLM_API_KEY"); llmKey != "" {
		reasoner = clients.NewLLMReasonClient(conf.LLMAPIURL, llmKey, conf.LLMModel)
		logger.Info("LLM trade reasons enabled", zap.String("model", conf.LLMModel))
	}

	builder := snapshot.NewBuilder(exchange, registry, logger)
	assessor := risk.NewAssessor(registry)
	det := detector.NewDetector(
		domain.Symbol(conf.FundingStable),
		domain.Symbol(conf.AltStable),
		domain.Symbol(conf.VolatileToken),
		detector.Thresholds{
			ArbitrageSpreadPercent: conf.ArbitrageSpreadPercent,
			HighPriceBand:          conf.HighPriceBand,
			LowPriceBand:           conf.LowPriceBand,
			MinBalanceForAction:    conf.MinTradeAmount,
			DustThreshold:          conf.DustThreshold,
			FundingThreshold:       conf.FundingThreshold,
		})
	exec := executor.NewExecutor(exchange, registry, reasoner, logger)

	ldgr, err := ledger.Load(conf.LedgerPath, assessor, logger)
	if err != nil {
		logger.Fatal("failed to load ledger", zap.Error(err))
	}

	limits := domain.TradeLimits{
		MaxTradePercentage: conf.MaxTradePercent,
		MinTradeAmount:     conf.MinTradeAmount,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *analyze {
		tools := agent.NewTools(builder, det, assessor, exec, ldgr, registry, limits)
		for _, analysis := range []func(context.Context) (string, error){
			tools.GetPortfolioAnalysis,
			tools.GetMarketAnalysis,
		} {
			text, err := analysis(ctx)
			if err != nil {
				logger.Fatal("analysis failed", zap.Error(err))
			}
			fmt.Println(text)
		}
		return
	}

	events, err := cycleevents.NewWALStore(conf.EventsDir)
	if err != nil {
		logger.Fatal("failed to open cycle event store", zap.Error(err))
	}
	defer events.Close()

	bot, err := internal.NewRebalancerBot(internal.BotDeps{
		Builder:     builder,
		Detector:    det,
		Assessor:    assessor,
		Policy:      agent.NewPolicy(conf.TradePercent),
		Executor:    exec,
		Ledger:      ldgr,
		Events:      events,
		Leaderboard: exchange,
		Registry:    registry,
		Limits:      limits,
		Interval:    conf.CycleInterval,
		Backoff:     conf.ErrorBackoff,
	}, logger)
	if err != nil {
		logger.Fatal("failed to create rebalancer bot", zap.Error(err))
	}

	if *once {
		if err := bot.RunCycle(ctx); err != nil {
			logger.Fatal("cycle failed", zap.Error(err))
		}
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(ctx)
	})
	g.Go(func() error {
		logger.Info("dashboard listening", zap.String("addr", conf.WebAddr))
		return web.NewServer(conf.WebAddr, events).Start(ctx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Fatal("agent stopped with error", zap.Error(err))
	}
	logger.Info("agent stopped")
}
