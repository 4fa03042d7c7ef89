// Command velocity runs the trading signal decision engine: source adapters
// feed signals and on-chain activity into the pipeline, the paper ledger
// records every execution, and the dashboard API streams the result.
//
// Usage:
//
//	velocity --config velocity.yaml
//	velocity (uses built-in defaults, simulator source)
//
// Optional environment variables:
//
//	GROQ_API_KEY or HYPE_API_KEY  remote hype scoring
//	OPENAI_API_KEY                trade rationale endpoint
//	PAYER_PRIVATE_KEY_BASE58      live transaction sending
//	BINANCE_API_KEY, BINANCE_API_SECRET
package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/adshao/go-binance/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"velocity/config"
	"velocity/internal/adapters"
	"velocity/internal/bus"
	"velocity/internal/clients"
	"velocity/internal/domain"
	"velocity/internal/executor"
	"velocity/internal/ledger"
	"velocity/internal/modectl"
	"velocity/internal/orchestrator"
	"velocity/internal/storage/decisions"
	"velocity/internal/vvm"
	"velocity/internal/web"
)

func main() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && err != context.Canceled {
		logger.Fatal("engine stopped", zap.Error(err))
	}
	logger.Info("engine shut down")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	eventBus := bus.New(logger.Named("bus"))

	paperLedger, err := ledger.Open(cfg.LedgerPath, logger.Named("ledger"))
	if err != nil {
		return err
	}
	defer paperLedger.Close()

	decisionStore, err := decisions.NewWALStore(cfg.DecisionWALDir)
	if err != nil {
		return err
	}
	defer decisionStore.Close()

	modes := modectl.New(cfg.SendEnabled, cfg.AutoSwitch, modectl.Thresholds{
		WinRate:   cfg.PaperToLiveWinrate,
		MinTrades: cfg.PaperToLiveMinTrades,
	}, eventBus, logger.Named("modectl"))

	dex := clients.NewDexScreenerClient("")
	var binanceClient *binance.Client
	if cfg.BinanceKey != "" && cfg.BinanceSec != "" {
		binanceClient = binance.NewClient(cfg.BinanceKey, cfg.BinanceSec)
	}

	hype := clients.NewHypeScorer(cfg.HypeAPIURL, cfg.HypeAPIKey, logger.Named("hype"))
	jupiter := clients.NewJupiterClient(cfg.JupiterAPIURL)
	quoter := clients.NewQuoteService(jupiter, binanceClient, dex, logger.Named("quote"))
	safety := clients.NewSafetyChecker(dex, cfg.MinLiquidityUSD, logger.Named("safety"))
	llm := clients.NewLLMClient(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMModel)

	paperExec := executor.NewPaperExecutor(paperLedger, logger.Named("paper"))
	liveExec, err := executor.NewLiveExecutor(cfg.RPCURL, cfg.PayerKey, paperLedger, logger.Named("live"))
	if err != nil {
		return err
	}

	orch := orchestrator.New(orchestrator.Config{
		HypeThreshold: cfg.HypeThreshold,
		TradeUSD:      cfg.TradeUSD,
	}, eventBus, hype, quoter, safety, paperExec, liveExec, modes, paperLedger,
		decisionStore, logger.Named("orchestrator"))

	manager := vvm.NewManager(vvm.Config{
		Window:          cfg.WindowDuration,
		ThresholdVolume: cfg.ThresholdVolume,
		ThresholdBuyers: cfg.ThresholdBuyers,
	}, logger.Named("vvm"))
	manager.OnValidated(func(payload domain.ValidatedPayload) {
		orch.HandleValidated(ctx, payload)
	})

	server := web.NewServer(fmt.Sprintf(":%d", cfg.Port), eventBus, paperLedger,
		modes, decisionStore, hype, llm, logger.Named("web"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(gctx) })

	started := 0
	if cfg.UseDexScreener {
		discovery := adapters.NewDexScreenerAdapter(dex, manager, eventBus, cfg.DexScreenerPoll, logger.Named("dexscreener"))
		g.Go(func() error { return discovery.Run(gctx) })
		started++
	}
	if cfg.UseOnChain {
		onchain := adapters.NewOnChainAdapter(cfg.RPCURL, manager, cfg.OnChainPoll, logger.Named("onchain"))
		g.Go(func() error { return onchain.Run(gctx) })
		started++
	}
	if started == 0 {
		scraper := adapters.NewScraperArray(cfg.Accounts, cfg.PollInterval, orch, logger.Named("scraper"))
		g.Go(func() error { return scraper.Run(gctx) })
	}

	logger.Info("velocity engine started",
		zap.Int("port", cfg.Port),
		zap.String("mode", string(modes.Mode())),
		zap.Bool("auto_switch", modes.AutoSwitchEnabled()))

	return g.Wait()
}
