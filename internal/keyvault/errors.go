package keyvault

import "errors"

var (
	// ErrConfiguration means the vault cannot operate: missing or short master secret,
	// or an unusable key store. Fatal at startup.
	ErrConfiguration = errors.New("key vault misconfigured")
	// ErrIntegrity means a record decrypted to a key whose public key is not the wallet.
	ErrIntegrity = errors.New("decrypted key does not match wallet")
	// ErrNotFound covers every other read failure. It carries no cryptographic detail.
	ErrNotFound = errors.New("key not found or decryption failed")
)
