package decision

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"degenagent-go/internal/agent"
	"degenagent-go/internal/market"
	"degenagent-go/internal/risk"
)

func testPolicy() Policy {
	return Policy{
		BaseSymbol: "SOL",
		Snapshot: market.NewSnapshot([]market.TrendingAsset{
			{Symbol: "BONK", Mint: "BONKmint", Change24h: 4},
			{Symbol: "WIF", Mint: "WIFmint", Change24h: -2},
		}, time.Unix(0, 0)),
		Agent:  &agent.Agent{ID: "A1", VaultBalance: decimal.RequireFromString("1.0"), Status: agent.StatusActive},
		Limits: risk.Limits{},
	}
}

const swapJSON = `{"action":"SWAP","fromToken":"SOL","toToken":"BONK","amount":"0.5","reasoning":"momentum"}`

func TestParseFencedEqualsUnwrapped(t *testing.T) {
	plain, err := Parse(swapJSON, testPolicy())
	if err != nil {
		t.Fatalf("plain parse: %v", err)
	}
	for _, wrapped := range []string{
		"```json\n" + swapJSON + "\n```",
		"```\n" + swapJSON + "\n```",
		"  ```JSON" + swapJSON + "```  ",
	} {
		got, err := Parse(wrapped, testPolicy())
		if err != nil {
			t.Fatalf("fenced parse %q: %v", wrapped, err)
		}
		if got != plain {
			t.Fatalf("fenced decision %+v differs from plain %+v", got, plain)
		}
	}
	if plain.Action != Swap || plain.ToToken != "BONK" || plain.Amount != "0.5" {
		t.Fatalf("unexpected decision %+v", plain)
	}
}

func TestParseInvalidActionHolds(t *testing.T) {
	for _, reply := range []string{
		`{"fromToken":"SOL","toToken":"BONK","amount":"0.5","reasoning":"x"}`,
		`{"action":"BUY","reasoning":"x"}`,
		`{"action":42}`,
	} {
		got, err := Parse(reply, testPolicy())
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected validation error for %s, got %v", reply, err)
		}
		if got.Action != Hold || got.Reasoning != ReasonInvalidFormat {
			t.Fatalf("expected HOLD with invalid-format reasoning, got %+v", got)
		}
	}
}

func TestParseGarbageHoldsForSafety(t *testing.T) {
	got, err := Parse("I think you should buy BONK!", testPolicy())
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if got.Action != Hold || got.Reasoning != ReasonBackendError {
		t.Fatalf("unexpected decision %+v", got)
	}
}

func TestParseHoldClearsTradeFields(t *testing.T) {
	got, err := Parse(`{"action":"hold","toToken":"BONK","amount":"1","reasoning":"wait"}`, testPolicy())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Action != Hold || got.ToToken != "" || got.FromToken != "" || got.Amount != "" {
		t.Fatalf("HOLD must not carry trade fields: %+v", got)
	}
	if got.Reasoning != "wait" {
		t.Fatalf("unexpected reasoning %q", got.Reasoning)
	}
}

func TestParseSwapValidation(t *testing.T) {
	cases := map[string]string{
		"wrong from":      `{"action":"SWAP","fromToken":"USDC","toToken":"BONK","amount":"0.5","reasoning":"x"}`,
		"not trending":    `{"action":"SWAP","fromToken":"SOL","toToken":"PEPE","amount":"0.5","reasoning":"x"}`,
		"negative amount": `{"action":"SWAP","fromToken":"SOL","toToken":"BONK","amount":"-1","reasoning":"x"}`,
		"zero amount":     `{"action":"SWAP","fromToken":"SOL","toToken":"BONK","amount":"0","reasoning":"x"}`,
		"nan amount":      `{"action":"SWAP","fromToken":"SOL","toToken":"BONK","amount":"lots","reasoning":"x"}`,
		"missing amount":  `{"action":"SWAP","fromToken":"SOL","toToken":"BONK","reasoning":"x"}`,
		"over balance":    `{"action":"SWAP","fromToken":"SOL","toToken":"BONK","amount":"1.5","reasoning":"x"}`,
	}
	for name, reply := range cases {
		got, err := Parse(reply, testPolicy())
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
		if got.Action != Hold || !strings.HasPrefix(got.Reasoning, "Rejected SWAP") {
			t.Fatalf("%s: expected rejected HOLD, got %+v", name, got)
		}
	}
}

func TestParseNormalisesSymbolsAndNumericAmount(t *testing.T) {
	got, err := Parse(`{"action":"swap","fromToken":"sol","toToken":"wif","amount":0.25}`, testPolicy())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.FromToken != "SOL" || got.ToToken != "WIF" || got.Amount != "0.25" {
		t.Fatalf("unexpected normalisation %+v", got)
	}
	if got.Reasoning == "" {
		t.Fatalf("reasoning must never be empty")
	}
	if !got.AmountDecimal().Equal(decimal.RequireFromString("0.25")) {
		t.Fatalf("unexpected amount decimal %s", got.AmountDecimal())
	}
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{}\n```":                          "{}",
		"```{}```":                                  "{}",
		"```json{}```":                              "{}",
		"{}":                                        "{}",
		"\n```\n{}\n```\n":                          "{}",
		"``` json\n{\"action\":\"HOLD\"}\n```":      `{"action":"HOLD"}`,
		"```json-ld\n{\"action\":\"HOLD\"}\n```":    `{"action":"HOLD"}`,
		"```JSON5\r\n{\"action\":\"HOLD\"}\r\n```": `{"action":"HOLD"}`,
	}
	for in, want := range cases {
		if got := StripFences(in); got != want {
			t.Fatalf("StripFences(%q) = %q, want %q", in, got, want)
		}
	}
	d, err := Parse("``` json\n{\"action\":\"HOLD\",\"reasoning\":\"flat\"}\n```", testPolicy())
	if err != nil || d.Action != Hold || d.Reasoning != "flat" {
		t.Fatalf("fenced reply with spaced tag should parse, got %+v (%v)", d, err)
	}
}

func TestBuildPromptDeterministic(t *testing.T) {
	p := testPolicy()
	p.Agent.Name = "Alpha"
	p.Agent.Purpose = "Ride memecoin momentum"
	first := BuildPrompt(p.Agent, p.Snapshot, "SOL")
	second := BuildPrompt(p.Agent, p.Snapshot, "SOL")
	if first != second {
		t.Fatalf("prompt is not deterministic")
	}
	for _, want := range []string{"Ride memecoin momentum", "Vault balance: 1 SOL", "1. BONK", "2. WIF", "single JSON object"} {
		if !strings.Contains(first, want) {
			t.Fatalf("prompt missing %q:\n%s", want, first)
		}
	}
}
