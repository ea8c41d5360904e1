// Package decision turns a language-model reply into a validated SWAP/HOLD verdict.
package decision

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"degenagent-go/internal/agent"
	"degenagent-go/internal/market"
	"degenagent-go/internal/risk"
)

// Action is the verdict kind.
type Action string

const (
	Swap Action = "SWAP"
	Hold Action = "HOLD"
)

const (
	ReasonInvalidFormat = "Invalid AI response format"
	ReasonBackendError  = "Error consulting AI, holding position for safety"
	reasonMissing       = "No reasoning provided"
)

// ErrValidation marks a reply that was well-formed but outside trading policy.
var ErrValidation = errors.New("decision rejected")

// Decision is one agent's verdict for one cycle. HOLD never carries token or amount fields.
type Decision struct {
	Action    Action `json:"action"`
	FromToken string `json:"fromToken,omitempty"`
	ToToken   string `json:"toToken,omitempty"`
	Amount    string `json:"amount,omitempty"` // base-asset units, decimal string
	Reasoning string `json:"reasoning"`
}

// HoldWith builds a HOLD decision carrying the given reasoning.
func HoldWith(reason string) Decision {
	if strings.TrimSpace(reason) == "" {
		reason = reasonMissing
	}
	return Decision{Action: Hold, Reasoning: reason}
}

// AmountDecimal parses Amount. Only meaningful on validated SWAP decisions.
func (d Decision) AmountDecimal() decimal.Decimal {
	amt, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return decimal.Zero
	}
	return amt
}

// Policy is the context a reply is validated against.
type Policy struct {
	BaseSymbol string
	Snapshot   market.Snapshot
	Agent      *agent.Agent
	Limits     risk.Limits
}

type rawDecision struct {
	Action    any             `json:"action"`
	FromToken string          `json:"fromToken"`
	ToToken   string          `json:"toToken"`
	Amount    json.RawMessage `json:"amount"`
	Reasoning string          `json:"reasoning"`
}

// StripFences removes a surrounding ``` or ```lang code fence.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		// the info string runs to the end of the opening line; a one-line fence
		// has no newline, so its body starts at the first JSON delimiter
		if _, body, found := strings.Cut(rest, "\n"); found {
			s = body
		} else if i := strings.IndexAny(rest, "{["); i >= 0 {
			s = rest[i:]
		} else {
			s = rest
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Parse validates a backend reply. The returned decision is always safe to act on;
// a non-nil error explains why it was forced to HOLD.
func Parse(reply string, p Policy) (Decision, error) {
	var raw rawDecision
	if err := json.Unmarshal([]byte(StripFences(reply)), &raw); err != nil {
		return HoldWith(ReasonBackendError), fmt.Errorf("decode reply: %w", err)
	}

	name, ok := raw.Action.(string)
	if !ok {
		return HoldWith(ReasonInvalidFormat), fmt.Errorf("%w: missing or non-string action", ErrValidation)
	}
	switch Action(strings.ToUpper(strings.TrimSpace(name))) {
	case Hold:
		return HoldWith(raw.Reasoning), nil
	case Swap:
	default:
		return HoldWith(ReasonInvalidFormat), fmt.Errorf("%w: unknown action %q", ErrValidation, name)
	}

	if !strings.EqualFold(strings.TrimSpace(raw.FromToken), p.BaseSymbol) {
		return reject("fromToken %q is not %s", raw.FromToken, p.BaseSymbol)
	}
	asset, ok := p.Snapshot.Find(raw.ToToken)
	if !ok {
		return reject("toToken %q is not in the trending set", raw.ToToken)
	}
	amountText, err := amountString(raw.Amount)
	if err != nil {
		return reject("amount: %v", err)
	}
	amount, err := decimal.NewFromString(amountText)
	if err != nil || !amount.IsPositive() {
		return reject("amount %q is not a positive number", amountText)
	}
	balance := decimal.Zero
	if p.Agent != nil {
		balance = p.Agent.VaultBalance
	}
	if err := p.Limits.Allow(amount, balance); err != nil {
		return reject("%v", err)
	}

	reasoning := strings.TrimSpace(raw.Reasoning)
	if reasoning == "" {
		reasoning = reasonMissing
	}
	return Decision{
		Action:    Swap,
		FromToken: p.BaseSymbol,
		ToToken:   asset.Symbol,
		Amount:    amount.String(),
		Reasoning: reasoning,
	}, nil
}

func reject(format string, args ...any) (Decision, error) {
	msg := fmt.Sprintf(format, args...)
	return HoldWith("Rejected SWAP: " + msg), fmt.Errorf("%w: %s", ErrValidation, msg)
}

// amountString accepts the amount as a JSON string or a bare JSON number.
func amountString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", errors.New("missing")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	return string(raw), nil
}
