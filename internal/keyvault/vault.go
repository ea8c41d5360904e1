// Package keyvault keeps agent signing keys encrypted at rest and signs on their behalf.
package keyvault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"
)

const (
	MinSecretLength = 32

	saltSize   = 32
	ivSize     = 16
	tagSize    = 16
	keySize    = 32
	iterations = 100_000
)

// Vault seals and opens key records with AES-256-GCM under a key derived from the
// master secret and a per-record random salt.
//
// Record layout, base64 encoded: salt(32) | iv(16) | tag(16) | ciphertext.
type Vault struct {
	secret []byte
}

// New validates the master secret eagerly.
func New(secret string) (*Vault, error) {
	if utf8.RuneCountInString(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: master secret must be at least %d characters", ErrConfiguration, MinSecretLength)
	}
	return &Vault{secret: []byte(secret)}, nil
}

func (v *Vault) gcm(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(v.secret, salt, iterations, keySize, sha256.New)
	defer zero(key)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, ivSize)
}

// Seal encrypts plaintext into a record.
func (v *Vault) Seal(plaintext []byte) (string, error) {
	buf := make([]byte, saltSize+ivSize, saltSize+ivSize+tagSize+len(plaintext))
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	salt, iv := buf[:saltSize], buf[saltSize:saltSize+ivSize]
	aead, err := v.gcm(salt)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	sealed := aead.Seal(nil, iv, plaintext, nil) // ciphertext | tag
	ctLen := len(sealed) - tagSize
	buf = append(buf, sealed[ctLen:]...)
	buf = append(buf, sealed[:ctLen]...)
	zero(sealed)
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Open decrypts a record. Every failure is reported as ErrNotFound.
func (v *Vault) Open(record string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(record)
	if err != nil || len(raw) < saltSize+ivSize+tagSize {
		return nil, ErrNotFound
	}
	salt := raw[:saltSize]
	iv := raw[saltSize : saltSize+ivSize]
	tag := raw[saltSize+ivSize : saltSize+ivSize+tagSize]
	ct := raw[saltSize+ivSize+tagSize:]

	aead, err := v.gcm(salt)
	if err != nil {
		return nil, ErrNotFound
	}
	sealed := make([]byte, 0, len(ct)+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)
	plaintext, err := aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, ErrNotFound
	}
	return plaintext, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
