package solana

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
)

var (
	// ErrSubmission covers decode, signing and broadcast failures.
	ErrSubmission = errors.New("transaction submission failed")
	// ErrNotConfirmed means the transaction was sent but did not reach the target commitment.
	ErrNotConfirmed = errors.New("transaction not confirmed")
)

// Signer produces an ed25519 signature over message on behalf of wallet.
type Signer interface {
	Sign(ctx context.Context, wallet solana.PublicKey, message []byte) (solana.Signature, error)
}

// Sender is the subset of *rpc.Client used to broadcast.
type Sender interface {
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
}

// Confirmer waits for a broadcast transaction to settle.
type Confirmer interface {
	Confirm(ctx context.Context, sig solana.Signature) error
}

// Submitter signs aggregator-built transactions and pushes them to the network.
type Submitter struct {
	log       zerolog.Logger
	rpc       Sender
	commit    rpc.CommitmentType
	confirmer Confirmer
}

func NewSubmitter(log zerolog.Logger, sender Sender, commit string, confirmer Confirmer) *Submitter {
	return &Submitter{
		log:       log.With().Str("component", "submitter").Logger(),
		rpc:       sender,
		commit:    ParseCommitment(commit),
		confirmer: confirmer,
	}
}

// ParseCommitment maps a config string to an rpc commitment, defaulting to confirmed.
func ParseCommitment(commit string) rpc.CommitmentType {
	switch commit {
	case "processed":
		return rpc.CommitmentProcessed
	case "finalized":
		return rpc.CommitmentFinalized
	}
	return rpc.CommitmentConfirmed
}

// SignAndSend decodes the unsigned transaction, signs it for wallet and broadcasts it.
// All failures wrap ErrSubmission.
func (s *Submitter) SignAndSend(ctx context.Context, unsigned string, wallet solana.PublicKey, signer Signer) (solana.Signature, error) {
	var sig solana.Signature
	raw, err := base64.StdEncoding.DecodeString(unsigned)
	if err != nil {
		return sig, fmt.Errorf("%w: decode tx: %v", ErrSubmission, err)
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return sig, fmt.Errorf("%w: unmarshal tx: %v", ErrSubmission, err)
	}
	if err := SignTransaction(ctx, tx, wallet, signer); err != nil {
		return sig, fmt.Errorf("%w: %w", ErrSubmission, err)
	}

	sig, err = s.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: s.commit,
	})
	if err != nil {
		return sig, fmt.Errorf("%w: send: %v", ErrSubmission, err)
	}
	return sig, nil
}

// Confirm waits for sig; failures wrap ErrNotConfirmed.
func (s *Submitter) Confirm(ctx context.Context, sig solana.Signature) error {
	if err := s.confirmer.Confirm(ctx, sig); err != nil {
		return fmt.Errorf("%w: %w", ErrNotConfirmed, err)
	}
	return nil
}

// SignTransaction fills the wallet's signature slot. The wallet must be one of the
// message's required signers.
func SignTransaction(ctx context.Context, tx *solana.Transaction, wallet solana.PublicKey, signer Signer) error {
	required := int(tx.Message.Header.NumRequiredSignatures)
	if required > len(tx.Message.AccountKeys) {
		return errors.New("malformed message header")
	}
	slot := -1
	for i, key := range tx.Message.AccountKeys[:required] {
		if key.Equals(wallet) {
			slot = i
			break
		}
	}
	if slot < 0 {
		return errors.New("wallet is not a required signer")
	}

	message, err := tx.Message.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	sig, err := signer.Sign(ctx, wallet, message)
	if err != nil {
		return fmt.Errorf("sign: %w", err)
	}

	if len(tx.Signatures) != required {
		sigs := make([]solana.Signature, required)
		copy(sigs, tx.Signatures)
		tx.Signatures = sigs
	}
	tx.Signatures[slot] = sig
	return nil
}
