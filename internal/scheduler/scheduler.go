// Package scheduler drives execution cycles over every active agent.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adhocore/gronx"
	solana "github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"degenagent-go/internal/agent"
	"degenagent-go/internal/decision"
	dex "degenagent-go/internal/dex/solana"
	"degenagent-go/internal/execution"
	"degenagent-go/internal/market"
	"degenagent-go/internal/metrics"
	"degenagent-go/internal/risk"
	"degenagent-go/internal/swap"
	"degenagent-go/internal/util"
)

// ErrCycleInProgress is returned when a cycle is requested while another is running.
var ErrCycleInProgress = errors.New("execution cycle already in progress")

const DefaultInterval = 5 * time.Minute

type Directory interface {
	List(ctx context.Context) []agent.Agent
	Get(ctx context.Context, id string) *agent.Agent
}

type MarketSource interface {
	Snapshot(ctx context.Context) market.Snapshot
}

type Decider interface {
	Decide(ctx context.Context, a *agent.Agent, snap market.Snapshot) decision.Decision
}

type Planner interface {
	Plan(ctx context.Context, d decision.Decision, wallet solana.PublicKey, snap market.Snapshot) (*swap.Plan, error)
}

type Executor interface {
	Execute(ctx context.Context, agentID string, plan *swap.Plan, signer dex.Signer) (execution.TradeOutcome, error)
}

// Deps are the collaborators of a cycle. Signer is the configured key backend.
type Deps struct {
	Directory Directory
	Market    MarketSource
	Decider   Decider
	Planner   Planner
	Executor  Executor
	Signer    dex.Signer
}

type Options struct {
	Interval time.Duration
	Cron     string // replaces Interval when set
	Limits   risk.Limits
}

// Scheduler runs one cycle at start, then one per interval or cron tick. Cycles that
// fire while another is still running are skipped.
type Scheduler struct {
	log      zerolog.Logger
	deps     Deps
	limits   risk.Limits
	interval time.Duration
	cron     string
	running  atomic.Bool
	now      func() time.Time
}

func New(log zerolog.Logger, deps Deps, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Scheduler{
		log:      log.With().Str("component", "scheduler").Logger(),
		deps:     deps,
		limits:   opts.Limits,
		interval: opts.Interval,
		cron:     opts.Cron,
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled, then waits for the in-flight cycle to return.
func (s *Scheduler) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	fire := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.cycle(ctx)
		}()
	}

	fire()
	if s.cron != "" {
		s.log.Info().Str("cron", s.cron).Msg("scheduler started")
		return s.runCron(ctx, fire)
	}

	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return nil
		case <-ticker.C:
			fire()
		}
	}
}

func (s *Scheduler) runCron(ctx context.Context, fire func()) error {
	for {
		next, err := gronx.NextTickAfter(s.cron, s.now(), false)
		if err != nil {
			return fmt.Errorf("next cron tick: %w", err)
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info().Msg("scheduler stopped")
			return nil
		case <-timer.C:
			fire()
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error().Interface("panic", p).Msg("cycle aborted")
		}
	}()
	_, _ = s.RunCycle(ctx)
}

// RunCycle processes every active agent sequentially and returns one Result per
// listed agent, in list order. A failed agent never stops the cycle.
func (s *Scheduler) RunCycle(ctx context.Context) ([]Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn().Msg("previous cycle still running, skipping")
		metrics.CyclesTotal.WithLabelValues("busy").Inc()
		return nil, ErrCycleInProgress
	}
	defer s.running.Store(false)

	start := s.now()
	log := s.log.With().Str("cycle", uuid.NewString()).Logger()
	log.Info().Msg("cycle started")

	agents := s.deps.Directory.List(ctx)
	if len(agents) == 0 {
		log.Info().Msg("no active agents, cycle aborted")
		metrics.CyclesTotal.WithLabelValues("empty").Inc()
		return []Result{}, nil
	}
	snap := s.deps.Market.Snapshot(ctx)
	log.Info().Int("agents", len(agents)).Int("trending", len(snap.Trending)).Str("sentiment", string(snap.Sentiment)).Msg("market snapshot taken")

	results := make([]Result, 0, len(agents))
	counts := map[Kind]int{}
	for _, a := range agents {
		var r Result
		if ctx.Err() != nil {
			r = Result{AgentID: a.ID, Kind: KindSkipped, Reason: ReasonShutdown}
		} else {
			// in-flight agents run to completion even when shutdown begins
			r = s.processAgent(context.WithoutCancel(ctx), log, a.ID, snap)
		}
		metrics.AgentResultsTotal.WithLabelValues(string(r.Kind), string(r.Reason)).Inc()
		counts[r.Kind]++
		results = append(results, r)
	}

	elapsed := s.now().Sub(start)
	metrics.CycleDuration.Observe(elapsed.Seconds())
	metrics.CyclesTotal.WithLabelValues("completed").Inc()
	log.Info().
		Int("traded", counts[KindTraded]).
		Int("held", counts[KindHeld]).
		Int("skipped", counts[KindSkipped]).
		Int("failed", counts[KindFailed]).
		Dur("elapsed", elapsed).
		Msg("cycle finished")
	return results, nil
}

func phase(log zerolog.Logger, name string) *zerolog.Event {
	return log.Info().Str("phase", name)
}

// processAgent walks one agent through the cycle state machine. Panics are
// converted into a failed result.
func (s *Scheduler) processAgent(ctx context.Context, log zerolog.Logger, id string, snap market.Snapshot) (r Result) {
	r = Result{AgentID: id}
	log = log.With().Str("agent", id).Logger()
	defer func() {
		if p := recover(); p != nil {
			r.Kind, r.Reason, r.Err = KindFailed, "", fmt.Errorf("agent processing panicked: %v", p)
			log.Error().Str("phase", "failed").Err(r.Err).Msg("agent failed")
		}
	}()

	a := s.deps.Directory.Get(ctx, id)
	if a == nil {
		phase(log, "skipped").Str("reason", string(ReasonNotFound)).Msg("agent state unavailable")
		return r.skip(ReasonNotFound)
	}
	phase(log, "state_fetched").
		Str("wallet", util.ShortAddress(a.WalletAddress)).
		Str("status", string(a.Status)).
		Str("balance", a.VaultBalance.String()).
		Msg("agent state fetched")

	if !a.Active() {
		phase(log, "skipped").Str("reason", string(ReasonPaused)).Msg("agent not active")
		return r.skip(ReasonPaused)
	}
	if !s.limits.Funded(a.VaultBalance) {
		phase(log, "skipped").Str("reason", string(ReasonInsufficientFunds)).Str("minimum", s.limits.MinVaultBalance.String()).Msg("vault balance below minimum")
		return r.skip(ReasonInsufficientFunds)
	}
	wallet, err := solana.PublicKeyFromBase58(a.WalletAddress)
	if err != nil {
		return r.fail(log, fmt.Errorf("invalid wallet address: %w", err))
	}

	phase(log, "deciding").Msg("consulting decision engine")
	d := s.deps.Decider.Decide(ctx, a, snap)
	r.Decision = &d
	if d.Action != decision.Swap {
		phase(log, "holding").Str("reasoning", d.Reasoning).Msg("holding position")
		r.Kind = KindHeld
		return r
	}

	phase(log, "planning").Str("from", d.FromToken).Str("to", d.ToToken).Str("amount", d.Amount).Msg("planning swap")
	plan, err := s.deps.Planner.Plan(ctx, d, wallet, snap)
	if err != nil {
		return r.fail(log, fmt.Errorf("plan swap: %w", err))
	}
	if plan == nil {
		phase(log, "quote_failed").Msg("no quote available")
		return r.skip(ReasonNoQuote)
	}
	phase(log, "tx_built").Uint64("amount_in", plan.AmountIn).Uint64("expected_out", plan.ExpectedOutput).Uint64("fee", plan.Fee).Msg("swap transaction built")

	outcome, err := s.deps.Executor.Execute(ctx, a.ID, plan, s.deps.Signer)
	r.Outcome = &outcome
	if err != nil {
		return r.fail(log, err)
	}
	phase(log, "confirmed").Str("signature", outcome.Signature).Msg("swap confirmed")
	r.Kind = KindTraded
	return r
}
