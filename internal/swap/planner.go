// Package swap turns a validated SWAP decision into a quoted, ready-to-sign transaction.
package swap

import (
	"context"
	"fmt"
	"strings"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"degenagent-go/internal/decision"
	dex "degenagent-go/internal/dex/solana"
	"degenagent-go/internal/market"
	"degenagent-go/internal/util"
)

// Aggregator is the liquidity aggregator surface the planner needs.
type Aggregator interface {
	GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*dex.Quote, error)
	BuildSwapTransaction(ctx context.Context, quote *dex.Quote, user solana.PublicKey) (string, error)
}

// Plan is a quoted swap awaiting signature. Amounts are in base units.
type Plan struct {
	Wallet         solana.PublicKey
	FromToken      string
	ToToken        string
	InputMint      string
	OutputMint     string
	AmountIn       uint64
	ExpectedOutput uint64
	Fee            uint64
	Quote          *dex.Quote
	UnsignedTx     string // base64
}

type Planner struct {
	log          zerolog.Logger
	agg          Aggregator
	baseSymbol   string
	baseMint     string
	baseDecimals int32
	slippageBps  int
}

func NewPlanner(log zerolog.Logger, agg Aggregator, slippageBps int) *Planner {
	if slippageBps <= 0 {
		slippageBps = DefaultSlippageBps
	}
	return &Planner{
		log:          log.With().Str("component", "planner").Logger(),
		agg:          agg,
		baseSymbol:   "SOL",
		baseMint:     SOLMint,
		baseDecimals: SOLDecimals,
		slippageBps:  slippageBps,
	}
}

// BaseSymbol is the asset every swap spends.
func (p *Planner) BaseSymbol() string { return p.baseSymbol }

// Plan quotes the swap and fetches the unsigned transaction. A nil plan with a nil
// error means no quote was available this cycle.
func (p *Planner) Plan(ctx context.Context, d decision.Decision, wallet solana.PublicKey, snap market.Snapshot) (*Plan, error) {
	if d.Action != decision.Swap {
		return nil, fmt.Errorf("plan requires a SWAP decision, got %s", d.Action)
	}
	if !strings.EqualFold(d.FromToken, p.baseSymbol) {
		return nil, fmt.Errorf("unsupported input token %q", d.FromToken)
	}
	asset, ok := snap.Find(d.ToToken)
	if !ok || asset.Mint == "" {
		return nil, fmt.Errorf("no mint known for %q", d.ToToken)
	}
	amountIn, err := ToSmallestUnit(d.AmountDecimal(), p.baseDecimals)
	if err != nil {
		return nil, err
	}

	log := p.log.With().Str("wallet", util.ShortAddress(wallet.String())).Str("to", asset.Symbol).Logger()
	quote, err := p.agg.GetQuote(ctx, p.baseMint, asset.Mint, amountIn, p.slippageBps)
	if err != nil {
		log.Warn().Err(err).Uint64("amount_in", amountIn).Msg("quote unavailable")
		return nil, nil
	}
	if quote == nil {
		log.Info().Uint64("amount_in", amountIn).Msg("no quote returned")
		return nil, nil
	}
	out, err := quote.OutAmountUnits()
	if err != nil {
		log.Warn().Err(err).Str("out_amount", quote.OutAmount).Msg("quote has unreadable output amount")
		return nil, nil
	}

	plan := &Plan{
		Wallet:         wallet,
		FromToken:      p.baseSymbol,
		ToToken:        asset.Symbol,
		InputMint:      p.baseMint,
		OutputMint:     asset.Mint,
		AmountIn:       amountIn,
		ExpectedOutput: out,
		Fee:            PlatformFee(amountIn, out),
		Quote:          quote,
	}
	log.Info().Uint64("amount_in", amountIn).Uint64("expected_out", out).Uint64("fee", plan.Fee).Msg("quote received")

	tx, err := p.agg.BuildSwapTransaction(ctx, quote, wallet)
	if err != nil {
		return plan, fmt.Errorf("build swap transaction: %w", err)
	}
	plan.UnsignedTx = tx
	return plan, nil
}
