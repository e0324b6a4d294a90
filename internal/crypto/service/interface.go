// Package service provides cryptographic services for envelope encryption.
// Implements AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305) and key wrapping
// through external key management services.
package service

import (
	"context"

	cryptoDomain "github.com/kbalijepalli/dreas/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeyProvider defines the interface for data key generation and wrapping.
//
// Implementations delegate master key operations to an external key
// management service. Plaintext data keys exist only in memory and callers
// are responsible for zeroing them after use.
type KeyProvider interface {
	// GenerateDek generates a fresh 32-byte data key and wraps it with the
	// active key handle. Returns the plaintext key, the wrapped key, and the
	// id of the handle that wrapped it.
	GenerateDek(ctx context.Context) (plaintext, wrapped []byte, keyHandleID string, err error)

	// UnwrapDek unwraps a data key using the named key handle. Any handle in
	// the configured chain can unwrap, not just the active one.
	UnwrapDek(ctx context.Context, keyHandleID string, wrapped []byte) ([]byte, error)

	// Close releases keepers held by the provider.
	Close() error
}

// EnvelopeCodec defines the interface for sealing and opening envelopes.
type EnvelopeCodec interface {
	// Seal encrypts plaintext under the data key, binding the policy tag as
	// associated data. The returned envelope has its key wrapping fields
	// (KeyHandleID, WrappedDek) unset; the caller fills them in.
	Seal(dek, plaintext []byte, policyTag string) (*cryptoDomain.Envelope, error)

	// Open authenticates and decrypts an envelope using the data key.
	// Returns ErrIntegrity on any authentication failure.
	Open(dek []byte, env *cryptoDomain.Envelope) ([]byte, error)
}

// KMSService defines the interface for opening key service keepers.
type KMSService interface {
	// OpenKeeper opens a keeper for the given key URI.
	// Returns an error if the URI is invalid or the connection fails.
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}
