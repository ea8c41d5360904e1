// Package execution signs, submits and confirms planned swaps and reports the outcome.
package execution

import (
	"context"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	dex "degenagent-go/internal/dex/solana"
	"degenagent-go/internal/metrics"
	"degenagent-go/internal/swap"
	"degenagent-go/internal/util"
)

// Status is the final state of a submitted swap.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// FeeState tracks the platform fee. Fees are computed per trade but never collected
// on-chain by this engine.
type FeeState string

const (
	FeeNone                FeeState = "none"
	FeeComputedUncollected FeeState = "computed_uncollected"
)

// TradeOutcome reports one submitted swap. Amounts are in base units. ActualOutput
// mirrors ExpectedOutput; settled amounts are not read back.
type TradeOutcome struct {
	AgentID        string    `json:"agentId"`
	Signature      string    `json:"signature,omitempty"`
	Status         Status    `json:"status"`
	FromToken      string    `json:"fromToken"`
	ToToken        string    `json:"toToken"`
	OutputMint     string    `json:"outputMint"`
	AmountIn       uint64    `json:"amountIn"`
	ExpectedOutput uint64    `json:"expectedOutput"`
	ActualOutput   uint64    `json:"actualOutput"`
	Fee            uint64    `json:"fee"`
	FeeState       FeeState  `json:"feeState"`
	Error          string    `json:"error,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Submitter is implemented by *dex.Submitter.
type Submitter interface {
	SignAndSend(ctx context.Context, unsigned string, wallet solana.PublicKey, signer dex.Signer) (solana.Signature, error)
	Confirm(ctx context.Context, sig solana.Signature) error
}

// Executor turns a plan into a TradeOutcome. It never retries.
type Executor struct {
	log zerolog.Logger
	sub Submitter
	rec Recorder
	now func() time.Time
}

func NewExecutor(log zerolog.Logger, sub Submitter) *Executor {
	return &Executor{log: log.With().Str("component", "executor").Logger(), sub: sub, now: time.Now}
}

// WithRecorder journals every outcome to rec.
func (e *Executor) WithRecorder(rec Recorder) *Executor {
	e.rec = rec
	return e
}

// Execute signs and submits plan, then waits for confirmation. The returned error is
// the submission or confirmation failure behind a failed outcome.
func (e *Executor) Execute(ctx context.Context, agentID string, plan *swap.Plan, signer dex.Signer) (TradeOutcome, error) {
	out := TradeOutcome{
		AgentID:        agentID,
		FromToken:      plan.FromToken,
		ToToken:        plan.ToToken,
		OutputMint:     plan.OutputMint,
		AmountIn:       plan.AmountIn,
		ExpectedOutput: plan.ExpectedOutput,
		ActualOutput:   plan.ExpectedOutput,
		Fee:            plan.Fee,
		FeeState:       FeeNone,
	}
	if plan.Fee > 0 {
		out.FeeState = FeeComputedUncollected
	}
	log := e.log.With().Str("agent", agentID).Str("wallet", util.ShortAddress(plan.Wallet.String())).Logger()

	sig, err := e.sub.SignAndSend(ctx, plan.UnsignedTx, plan.Wallet, signer)
	if err != nil {
		return e.finish(log, out, StatusFailed, err), err
	}
	out.Signature = sig.String()
	log.Info().Str("signature", out.Signature).Msg("transaction submitted")

	if err := e.sub.Confirm(ctx, sig); err != nil {
		return e.finish(log, out, StatusFailed, err), err
	}
	return e.finish(log, out, StatusConfirmed, nil), nil
}

func (e *Executor) finish(log zerolog.Logger, out TradeOutcome, status Status, err error) TradeOutcome {
	out.Status = status
	out.Timestamp = e.now()
	metrics.TradesTotal.WithLabelValues(string(status)).Inc()

	ev := log.Info()
	if err != nil {
		out.Error = err.Error()
		ev = log.Warn().Err(err)
	}
	if status == StatusConfirmed && out.Fee > 0 {
		metrics.FeeUncollectedBaseUnits.WithLabelValues(out.OutputMint).Add(float64(out.Fee))
	}
	ev.Str("status", string(status)).
		Str("from", out.FromToken).
		Str("to", out.ToToken).
		Uint64("amount_in", out.AmountIn).
		Uint64("expected_out", out.ExpectedOutput).
		Uint64("fee", out.Fee).
		Str("fee_state", string(out.FeeState)).
		Msg("trade outcome")
	if e.rec != nil {
		e.rec.Record(out)
	}
	return out
}
