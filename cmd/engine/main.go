// Binary engine runs the autonomous trading cycles for every active agent.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"degenagent-go/internal/agent"
	"degenagent-go/internal/config"
	"degenagent-go/internal/decision"
	dex "degenagent-go/internal/dex/solana"
	"degenagent-go/internal/execution"
	"degenagent-go/internal/keyvault"
	"degenagent-go/internal/market"
	"degenagent-go/internal/metrics"
	"degenagent-go/internal/risk"
	"degenagent-go/internal/scheduler"
	"degenagent-go/internal/swap"
	"degenagent-go/internal/util"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code: 1 for any startup or configuration failure.
func run(args []string) int {
	fs := flag.NewFlagSet("engine", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to YAML config (optional)")
	once := fs.Bool("once", false, "run a single cycle and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := util.NewLogger("info")
		boot.Error().Err(err).Msg("load config")
		return 1
	}
	log := util.NewLogger(cfg.App.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 1
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sched, closeKeys, err := build(ctx, log, cfg)
	if err != nil {
		log.Error().Err(err).Msg("engine setup failed")
		return 1
	}
	defer closeKeys()

	if *once {
		results, err := sched.RunCycle(ctx)
		if err != nil {
			log.Error().Err(err).Msg("cycle failed")
			return 0
		}
		log.Info().Int("agents", len(results)).Msg("single cycle complete")
		return 0
	}

	srv := metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	if err := sched.Run(ctx); err != nil {
		log.Error().Err(err).Msg("scheduler stopped")
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)
	log.Info().Msg("shutting down")
	return 0
}

func build(ctx context.Context, log zerolog.Logger, cfg *config.Config) (*scheduler.Scheduler, func(), error) {
	keys, err := keyvault.Open(ctx, log, cfg.Keys)
	if err != nil {
		if errors.Is(err, keyvault.ErrConfiguration) {
			log.Error().Str("backend", cfg.Keys.Backend).Msg("key vault cannot start without valid custody configuration")
		}
		return nil, nil, err
	}
	log.Info().Str("backend", keys.Name()).Msg("key backend ready")
	closeKeys := func() { _ = keys.Close() }

	limits, err := risk.NewLimits(cfg.Risk.MinVaultBalanceSOL, cfg.Risk.MaxTradeSOL)
	if err != nil {
		closeKeys()
		return nil, nil, err
	}
	backend, err := decision.NewOpenAIBackend(cfg.Decision.APIKey, cfg.Decision.BaseURL, cfg.Decision.Model)
	if err != nil {
		closeKeys()
		return nil, nil, err
	}

	client := rpc.New(cfg.Dex.RpcURL)
	var confirmer dex.Confirmer = dex.NewPollConfirmer(log, client, cfg.Dex.Commitment)
	if cfg.Dex.WsURL != "" {
		confirmer = dex.NewWSConfirmer(cfg.Dex.WsURL, cfg.Dex.Commitment)
	}
	submitter := dex.NewSubmitter(log, client, cfg.Dex.Commitment, confirmer)
	executor := execution.NewExecutor(log, submitter)
	if cfg.App.TradeLog != "" {
		journal, err := execution.NewJSONLRecorder(cfg.App.TradeLog)
		if err != nil {
			closeKeys()
			return nil, nil, fmt.Errorf("open trade journal: %w", err)
		}
		executor.WithRecorder(journal)
		prev := closeKeys
		closeKeys = func() {
			_ = journal.Close()
			prev()
		}
	}
	planner := swap.NewPlanner(log, dex.NewJupiterClient(cfg.Dex.JupiterBase), cfg.Dex.SlippageBps)

	sched := scheduler.New(log, scheduler.Deps{
		Directory: agent.NewDirectory(log, cfg.Directory.BaseURL),
		Market:    market.NewDexScreenerSource(log, cfg.Market.DexScreenerBaseURL, cfg.Market.Keywords, cfg.Market.MaxAssets, swap.SOLMint),
		Decider:   decision.NewEngine(log, backend, planner.BaseSymbol(), limits),
		Planner:   planner,
		Executor:  executor,
		Signer:    keys,
	}, scheduler.Options{
		Interval: time.Duration(cfg.Schedule.IntervalMinutes) * time.Minute,
		Cron:     cfg.Schedule.Cron,
		Limits:   limits,
	})
	return sched, closeKeys, nil
}
