package risk

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Limits struct {
	MinVaultBalance decimal.Decimal // SOL; below this an agent is skipped
	MaxTradeAmount  decimal.Decimal // SOL; zero disables the cap
}

// NewLimits parses decimal strings from configuration. Empty strings mean zero.
func NewLimits(minBalance, maxTrade string) (Limits, error) {
	var l Limits
	var err error
	if minBalance != "" {
		if l.MinVaultBalance, err = decimal.NewFromString(minBalance); err != nil {
			return Limits{}, fmt.Errorf("min vault balance: %w", err)
		}
	}
	if maxTrade != "" {
		if l.MaxTradeAmount, err = decimal.NewFromString(maxTrade); err != nil {
			return Limits{}, fmt.Errorf("max trade amount: %w", err)
		}
	}
	if l.MinVaultBalance.IsNegative() || l.MaxTradeAmount.IsNegative() {
		return Limits{}, fmt.Errorf("risk limits must not be negative")
	}
	return l, nil
}

// Funded reports whether a vault holds enough to be considered for trading.
func (l Limits) Funded(balance decimal.Decimal) bool {
	return balance.GreaterThanOrEqual(l.MinVaultBalance)
}

// Allow checks a proposed trade amount against the vault balance and the per-trade cap.
func (l Limits) Allow(amount, balance decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount %s is not positive", amount)
	}
	if amount.GreaterThan(balance) {
		return fmt.Errorf("amount %s exceeds vault balance %s", amount, balance)
	}
	if l.MaxTradeAmount.IsPositive() && amount.GreaterThan(l.MaxTradeAmount) {
		return fmt.Errorf("amount %s exceeds per-trade cap %s", amount, l.MaxTradeAmount)
	}
	return nil
}
