package solana

import (
	"encoding/json"
	"testing"

	solana "github.com/gagliardetto/solana-go"
)

func TestParsePrivateKeyFormats(t *testing.T) {
	wallet := solana.NewWallet()
	raw := []byte(wallet.PrivateKey)

	ints := make([]int, len(raw))
	for i, b := range raw {
		ints[i] = int(b)
	}
	arr, _ := json.Marshal(ints)

	inputs := map[string][]byte{
		"raw":    append([]byte(nil), raw...),
		"base58": []byte(wallet.PrivateKey.String() + "\n"),
		"json":   arr,
	}
	for name, in := range inputs {
		key, err := ParsePrivateKey(in)
		if err != nil {
			t.Fatalf("%s: expected key, got error: %v", name, err)
		}
		if !key.PublicKey().Equals(wallet.PublicKey()) {
			t.Fatalf("%s: expected public key %s, got %s", name, wallet.PublicKey(), key.PublicKey())
		}
	}
}

func TestParsePrivateKeyRejectsGarbage(t *testing.T) {
	for _, in := range [][]byte{nil, []byte("   "), []byte("[1,2,3]"), []byte("not-base58-0OIl")} {
		if _, err := ParsePrivateKey(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestDerivedPublicKeyIgnoresStoredHalf(t *testing.T) {
	wallet := solana.NewWallet()
	other := solana.NewWallet()

	forged := make(solana.PrivateKey, 64)
	copy(forged[:32], wallet.PrivateKey[:32])
	copy(forged[32:], other.PublicKey().Bytes())

	if !DerivedPublicKey(forged).Equals(wallet.PublicKey()) {
		t.Fatalf("derived key should come from the seed")
	}
	if forged.PublicKey().Equals(wallet.PublicKey()) {
		t.Fatalf("forged key should advertise the other public key")
	}
}

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3}
	Zero(b)
	for _, v := range b {
		if v != 0 {
			t.Fatalf("expected zeroed buffer, got %v", b)
		}
	}
}
