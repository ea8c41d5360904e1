package keyvault

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"degenagent-go/internal/config"
	dex "degenagent-go/internal/dex/solana"
	"degenagent-go/internal/util"
)

// KeyBackend signs transaction messages for agent wallets without handing out key
// material. Implementations satisfy dex.Signer.
type KeyBackend interface {
	Sign(ctx context.Context, wallet solana.PublicKey, message []byte) (solana.Signature, error)
	Name() string
	Close() error
}

// Open builds the backend selected by configuration.
func Open(ctx context.Context, log zerolog.Logger, keys config.Keys) (KeyBackend, error) {
	switch keys.Backend {
	case config.KeyBackendLocal:
		vault, err := New(keys.MasterSecret)
		if err != nil {
			return nil, err
		}
		var store Store
		switch keys.Store {
		case config.KeyStoreFile:
			store, err = NewFileStore(keys.StorePath)
		case config.KeyStoreSQLite:
			store, err = NewSQLiteStore(keys.StorePath)
		case config.KeyStoreRedis:
			store, err = NewRedisStore(ctx, keys.RedisAddr, keys.RedisPassword, keys.RedisDB, keys.RedisKey)
		default:
			err = fmt.Errorf("%w: unknown key store %q", ErrConfiguration, keys.Store)
		}
		if err != nil {
			return nil, err
		}
		return NewLocalBackend(log, vault, store), nil
	case config.KeyBackendRemote:
		if keys.RemoteURL == "" {
			return nil, fmt.Errorf("%w: remote signer url is empty", ErrConfiguration)
		}
		return NewRemoteBackend(log, keys.RemoteURL, keys.RemoteToken), nil
	}
	return nil, fmt.Errorf("%w: unknown key backend %q", ErrConfiguration, keys.Backend)
}

// LocalBackend decrypts records from a Store with the process master secret.
type LocalBackend struct {
	log   zerolog.Logger
	vault *Vault
	store Store
}

func NewLocalBackend(log zerolog.Logger, vault *Vault, store Store) *LocalBackend {
	return &LocalBackend{
		log:   log.With().Str("component", "keyvault").Str("backend", config.KeyBackendLocal).Logger(),
		vault: vault,
		store: store,
	}
}

func (b *LocalBackend) Name() string { return config.KeyBackendLocal }

func (b *LocalBackend) Close() error { return b.store.Close() }

// Signer returns the wallet's private key. Callers must zero it when done.
func (b *LocalBackend) Signer(ctx context.Context, wallet solana.PublicKey) (solana.PrivateKey, error) {
	log := b.log.With().Str("wallet", util.ShortAddress(wallet.String())).Logger()

	record, err := b.store.Get(ctx, wallet.String())
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn().Err(err).Msg("key store read failed")
		} else {
			log.Warn().Msg("key record missing")
		}
		return nil, ErrNotFound
	}
	plaintext, err := b.vault.Open(record)
	if err != nil {
		log.Warn().Msg("key record could not be decrypted")
		return nil, ErrNotFound
	}
	defer zero(plaintext)

	parsed, err := dex.ParsePrivateKey(plaintext)
	if err != nil {
		log.Warn().Msg("decrypted key material is malformed")
		return nil, ErrNotFound
	}
	defer zero(parsed)

	if !dex.DerivedPublicKey(parsed).Equals(wallet) {
		log.Error().Msg("decrypted key does not match wallet")
		return nil, ErrIntegrity
	}
	return solana.PrivateKey(ed25519.NewKeyFromSeed(parsed[:ed25519.SeedSize])), nil
}

func (b *LocalBackend) Sign(ctx context.Context, wallet solana.PublicKey, message []byte) (solana.Signature, error) {
	key, err := b.Signer(ctx, wallet)
	if err != nil {
		return solana.Signature{}, err
	}
	defer zero(key)
	return key.Sign(message)
}

// RemoteBackend delegates signing to a managed-key service and verifies every
// signature it returns.
type RemoteBackend struct {
	log   zerolog.Logger
	base  string
	token string
	http  *http.Client
}

func NewRemoteBackend(log zerolog.Logger, baseURL, token string) *RemoteBackend {
	return &RemoteBackend{
		log:   log.With().Str("component", "keyvault").Str("backend", config.KeyBackendRemote).Logger(),
		base:  strings.TrimSuffix(baseURL, "/"),
		token: token,
		http:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (b *RemoteBackend) Name() string { return config.KeyBackendRemote }

func (b *RemoteBackend) Close() error { return nil }

type signRequest struct {
	Wallet  string `json:"wallet"`
	Message string `json:"message"` // base64
}

type signResponse struct {
	Signature string `json:"signature"` // base58
}

func (b *RemoteBackend) Sign(ctx context.Context, wallet solana.PublicKey, message []byte) (solana.Signature, error) {
	var sig solana.Signature
	body, err := json.Marshal(signRequest{Wallet: wallet.String(), Message: base64.StdEncoding.EncodeToString(message)})
	if err != nil {
		return sig, fmt.Errorf("encode sign request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.base+"/v1/sign", bytes.NewReader(body))
	if err != nil {
		return sig, err
	}
	req.Header.Set("Content-Type", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return sig, fmt.Errorf("remote signer: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return sig, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return sig, fmt.Errorf("remote signer status %d", resp.StatusCode)
	}
	var out signResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil {
		return sig, fmt.Errorf("decode sign response: %w", err)
	}
	sig, err = solana.SignatureFromBase58(out.Signature)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("decode signature: %w", err)
	}
	if !ed25519.Verify(ed25519.PublicKey(wallet.Bytes()), message, sig[:]) {
		b.log.Error().Str("wallet", util.ShortAddress(wallet.String())).Msg("remote signature does not verify")
		return solana.Signature{}, ErrIntegrity
	}
	return sig, nil
}
