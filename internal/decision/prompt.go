package decision

import (
	"fmt"
	"strings"

	"degenagent-go/internal/agent"
	"degenagent-go/internal/market"
)

const systemPrompt = "" +
	"You are the trading brain of an autonomous Solana agent. " +
	"You reply with exactly one JSON object and nothing else: no prose, no markdown."

// BuildPrompt renders the agent's state and the market snapshot. Output is
// deterministic for equal inputs.
func BuildPrompt(a *agent.Agent, snap market.Snapshot, baseSymbol string) string {
	var b strings.Builder
	b.WriteString("## Agent\n")
	fmt.Fprintf(&b, "Name: %s\n", strings.TrimSpace(a.Name))
	fmt.Fprintf(&b, "Mission: %s\n", strings.TrimSpace(a.Purpose))
	fmt.Fprintf(&b, "Vault balance: %s %s\n", a.VaultBalance.String(), baseSymbol)
	fmt.Fprintf(&b, "Trades so far: %d\n", a.TotalTrades)
	fmt.Fprintf(&b, "Volume so far: %s %s\n", a.TotalVolume.String(), baseSymbol)

	b.WriteString("\n## Market\n")
	fmt.Fprintf(&b, "Sentiment: %s\n", snap.Sentiment)
	fmt.Fprintf(&b, "Total market cap (USD): %.0f\n", snap.TotalMarketCap)
	fmt.Fprintf(&b, "Total 24h volume (USD): %.0f\n", snap.TotalVolume24h)
	if len(snap.Trending) == 0 {
		b.WriteString("Trending tokens: none available\n")
	} else {
		b.WriteString("Trending tokens:\n")
		for i, t := range snap.Trending {
			fmt.Fprintf(&b, "%d. %s: price $%g, 24h change %+.2f%%, 24h volume $%.0f\n",
				i+1, t.Symbol, t.PriceUSD, t.Change24h, t.Volume24h)
		}
	}

	b.WriteString("\n## Instructions\n")
	b.WriteString("Decide whether to swap part of the vault into one trending token or to hold.\n")
	fmt.Fprintf(&b, "fromToken must be %q. toToken must be one of the trending symbols above.\n", baseSymbol)
	fmt.Fprintf(&b, "amount is a decimal string in %s, greater than 0 and at most the vault balance.\n", baseSymbol)
	b.WriteString("Respond with a single JSON object matching exactly this schema and nothing else:\n")
	fmt.Fprintf(&b, `{"action": "SWAP" | "HOLD", "fromToken": %q, "toToken": "<symbol>", "amount": "<decimal>", "reasoning": "<why>"}`+"\n", baseSymbol)
	b.WriteString("For HOLD, omit fromToken, toToken and amount. reasoning is always required.\n")
	return b.String()
}
