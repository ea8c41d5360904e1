package decision

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"degenagent-go/internal/agent"
	"degenagent-go/internal/market"
	"degenagent-go/internal/metrics"
	"degenagent-go/internal/risk"
)

// Engine asks the backend once per call and never returns an error: every failure
// becomes a HOLD decision.
type Engine struct {
	log        zerolog.Logger
	backend    Backend
	baseSymbol string
	limits     risk.Limits
}

func NewEngine(log zerolog.Logger, backend Backend, baseSymbol string, limits risk.Limits) *Engine {
	return &Engine{
		log:        log.With().Str("component", "decision").Logger(),
		backend:    backend,
		baseSymbol: baseSymbol,
		limits:     limits,
	}
}

func (e *Engine) Decide(ctx context.Context, a *agent.Agent, snap market.Snapshot) (d Decision) {
	if a == nil {
		return HoldWith(ReasonBackendError)
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("agent", a.ID).Str("panic", fmt.Sprint(r)).Msg("decision panicked, holding")
			d = HoldWith(ReasonBackendError)
		}
		metrics.DecisionsTotal.WithLabelValues(string(d.Action)).Inc()
	}()

	prompt := BuildPrompt(a, snap, e.baseSymbol)
	reply, err := e.backend.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		e.log.Warn().Err(err).Str("agent", a.ID).Msg("decision backend failed, holding")
		return HoldWith(ReasonBackendError)
	}

	d, err = Parse(reply, Policy{BaseSymbol: e.baseSymbol, Snapshot: snap, Agent: a, Limits: e.limits})
	if err != nil {
		e.log.Warn().Err(err).Str("agent", a.ID).Msg("decision forced to hold")
	}
	return d
}
