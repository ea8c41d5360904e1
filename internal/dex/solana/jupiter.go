package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	solana "github.com/gagliardetto/solana-go"
)

type JupiterClient struct {
	Base string
	Http *http.Client
}

// Quote keeps the aggregator's raw payload so it can be echoed back verbatim when
// building the swap transaction.
type Quote struct {
	InputMint      string `json:"inputMint"`
	OutputMint     string `json:"outputMint"`
	InAmount       string `json:"inAmount"`
	OutAmount      string `json:"outAmount"`
	OtherAmount    string `json:"otherAmountThreshold"`
	SlippageBps    int    `json:"slippageBps"`
	PriceImpactPct string `json:"priceImpactPct"`

	raw json.RawMessage
}

// MarshalJSON returns the payload as received from the aggregator when available.
func (q Quote) MarshalJSON() ([]byte, error) {
	if len(q.raw) > 0 {
		return q.raw, nil
	}
	type plain Quote
	return json.Marshal(plain(q))
}

// OutAmountUnits parses the expected output in the output mint's smallest unit.
func (q *Quote) OutAmountUnits() (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(q.OutAmount), 10, 64)
}

func NewJupiterClient(base string) *JupiterClient {
	return &JupiterClient{
		Base: strings.TrimSuffix(base, "/"),
		Http: &http.Client{Timeout: 8 * time.Second},
	}
}

// amount is in smallest units (lamports for SOL; token decimals apply).
func (j *JupiterClient) GetQuote(ctx context.Context, inputMint, outputMint string, amount uint64, slippageBps int) (*Quote, error) {
	q := url.Values{}
	q.Set("inputMint", inputMint)
	q.Set("outputMint", outputMint)
	q.Set("amount", fmt.Sprintf("%d", amount))
	q.Set("slippageBps", fmt.Sprintf("%d", slippageBps))
	q.Set("onlyDirectRoutes", "false")
	u := j.Base + "/v6/quote?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := j.Http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jupiter quote status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var out Quote
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	out.raw = raw
	return &out, nil
}

// BuildSwapTransaction asks Jupiter for a ready-to-sign transaction paying out to user.
// The returned string is the base64-encoded unsigned transaction.
func (j *JupiterClient) BuildSwapTransaction(ctx context.Context, quote *Quote, user solana.PublicKey) (string, error) {
	payload := map[string]any{
		"userPublicKey":             user.String(),
		"wrapAndUnwrapSol":          true,
		"asLegacyTransaction":       false,
		"useTokenLedger":            false,
		"dynamicComputeUnitLimit":   true,
		"prioritizationFeeLamports": "auto",
		"quoteResponse":             quote,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode swap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.Base+"/v6/swap", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := j.Http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("jupiter swap status %d", resp.StatusCode)
	}
	var sr struct {
		SwapTransaction string `json:"swapTransaction"` // base64-encoded tx (unsigned)
	}
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", err
	}
	if sr.SwapTransaction == "" {
		return "", fmt.Errorf("jupiter swap returned no transaction")
	}
	return sr.SwapTransaction, nil
}
