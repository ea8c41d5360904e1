package scheduler

import (
	"github.com/rs/zerolog"

	"degenagent-go/internal/decision"
	"degenagent-go/internal/execution"
)

// Kind is the terminal state of one agent in one cycle.
type Kind string

const (
	KindTraded  Kind = "traded"
	KindHeld    Kind = "held"
	KindSkipped Kind = "skipped"
	KindFailed  Kind = "failed"
)

type Reason string

const (
	ReasonPaused            Reason = "paused"
	ReasonInsufficientFunds Reason = "insufficient_funds"
	ReasonNotFound          Reason = "not_found"
	ReasonNoQuote           Reason = "no_quote"
	ReasonShutdown          Reason = "shutdown"
)

// Result is one agent's contribution to a cycle. Outcome is set once a transaction
// was attempted, including failed ones.
type Result struct {
	AgentID  string
	Kind     Kind
	Reason   Reason // skipped only
	Decision *decision.Decision
	Outcome  *execution.TradeOutcome
	Err      error
}

func (r Result) skip(reason Reason) Result {
	r.Kind, r.Reason = KindSkipped, reason
	return r
}

func (r Result) fail(log zerolog.Logger, err error) Result {
	r.Kind, r.Err = KindFailed, err
	log.Error().Str("phase", "failed").Err(err).Msg("agent failed")
	return r
}
