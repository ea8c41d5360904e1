// Package agent models trading agents and reads them from the external registry.
package agent

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Status is the registry-side lifecycle state of an agent.
type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
)

// UnmarshalText normalises case so "Active" and "active" compare equal.
func (s *Status) UnmarshalText(b []byte) error {
	*s = Status(strings.ToLower(strings.TrimSpace(string(b))))
	return nil
}

// Agent is the engine's read-only view of a registry entry.
type Agent struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Purpose       string          `json:"purpose"`
	WalletAddress string          `json:"walletAddress"`
	VaultBalance  decimal.Decimal `json:"vaultBalance"` // SOL
	Status        Status          `json:"status"`
	TotalTrades   int64           `json:"totalTrades"`
	TotalVolume   decimal.Decimal `json:"totalVolume"` // SOL
}

// Active reports whether the agent may be considered for trading.
func (a *Agent) Active() bool { return a != nil && a.Status == StatusActive }
