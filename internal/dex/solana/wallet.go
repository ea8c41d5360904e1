package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"errors"

	solana "github.com/gagliardetto/solana-go"
)

var errKeyFormat = errors.New("unrecognised private key encoding")

// ParsePrivateKey accepts 64 raw bytes, base58 text, or a JSON byte array (the
// solana-keygen file format). The caller owns and should zero the input.
func ParsePrivateKey(material []byte) (solana.PrivateKey, error) {
	trimmed := bytes.TrimSpace(material)
	switch {
	case len(material) == ed25519.PrivateKeySize:
		out := make(solana.PrivateKey, ed25519.PrivateKeySize)
		copy(out, material)
		return out, nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		var ints []int
		if err := json.Unmarshal(trimmed, &ints); err != nil || len(ints) != ed25519.PrivateKeySize {
			return nil, errKeyFormat
		}
		out := make(solana.PrivateKey, ed25519.PrivateKeySize)
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, errKeyFormat
			}
			out[i] = byte(v)
		}
		return out, nil
	case len(trimmed) > 0:
		key, err := solana.PrivateKeyFromBase58(string(trimmed))
		if err != nil || len(key) != ed25519.PrivateKeySize {
			return nil, errKeyFormat
		}
		return key, nil
	}
	return nil, errKeyFormat
}

// DerivedPublicKey recomputes the public key from the seed half rather than trusting
// the stored public half.
func DerivedPublicKey(key solana.PrivateKey) solana.PublicKey {
	if len(key) != ed25519.PrivateKeySize {
		return solana.PublicKey{}
	}
	full := ed25519.NewKeyFromSeed(key[:ed25519.SeedSize])
	defer Zero(full)
	return solana.PublicKeyFromBytes(full[ed25519.SeedSize:])
}

// Zero wipes key material in place.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
