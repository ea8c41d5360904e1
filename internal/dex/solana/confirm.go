package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	defaultConfirmInterval = 2 * time.Second
	defaultConfirmTimeout  = 60 * time.Second
)

// errOnChain marks a transaction that landed but failed execution.
var errOnChain = errors.New("transaction failed on-chain")

var commitmentRank = map[string]int{"processed": 1, "confirmed": 2, "finalized": 3}

func reached(status string, target rpc.CommitmentType) bool {
	got, ok := commitmentRank[status]
	return ok && got >= commitmentRank[string(target)]
}

// StatusClient is the subset of *rpc.Client used for polling.
type StatusClient interface {
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// PollConfirmer polls signature statuses until the target commitment or the timeout.
type PollConfirmer struct {
	log        zerolog.Logger
	rpc        StatusClient
	commitment rpc.CommitmentType
	Interval   time.Duration
	Timeout    time.Duration
}

func NewPollConfirmer(log zerolog.Logger, client StatusClient, commit string) *PollConfirmer {
	return &PollConfirmer{
		log:        log.With().Str("component", "confirmer").Logger(),
		rpc:        client,
		commitment: ParseCommitment(commit),
		Interval:   defaultConfirmInterval,
		Timeout:    defaultConfirmTimeout,
	}
}

func (p *PollConfirmer) Confirm(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		out, err := p.rpc.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			p.log.Debug().Err(err).Msg("signature status poll failed")
		} else if out != nil && len(out.Value) > 0 && out.Value[0] != nil {
			status := out.Value[0]
			if status.Err != nil {
				return fmt.Errorf("%w: %v", errOnChain, status.Err)
			}
			if reached(string(status.ConfirmationStatus), p.commitment) {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("confirmation wait: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// WSConfirmer subscribes to the signature over the RPC websocket endpoint.
type WSConfirmer struct {
	url        string
	commitment rpc.CommitmentType
	dialer     *websocket.Dialer
	Timeout    time.Duration
}

func NewWSConfirmer(wsURL, commit string) *WSConfirmer {
	return &WSConfirmer{
		url:        wsURL,
		commitment: ParseCommitment(commit),
		dialer:     &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		Timeout:    defaultConfirmTimeout,
	}
}

type wsMessage struct {
	Method string `json:"method"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Params struct {
		Result struct {
			Value struct {
				Err any `json:"err"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

func (w *WSConfirmer) Confirm(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()

	conn, _, err := w.dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("dial websocket: %w", err)
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	sub := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "signatureSubscribe",
		"params":  []any{sig.String(), map[string]string{"commitment": string(w.commitment)}},
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("confirmation wait: %w", ctx.Err())
			}
			return fmt.Errorf("read websocket: %w", err)
		}
		if msg.Error != nil {
			return fmt.Errorf("subscribe rejected: %s", msg.Error.Message)
		}
		if msg.Method != "signatureNotification" {
			continue
		}
		if msg.Params.Result.Value.Err != nil {
			return fmt.Errorf("%w: %v", errOnChain, msg.Params.Result.Value.Err)
		}
		return nil
	}
}
