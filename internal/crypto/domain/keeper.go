package domain

import "context"

// KMSKeeper abstracts a key management service keeper that wraps and unwraps
// data encryption keys with a master key it never releases.
//
// *secrets.Keeper from gocloud.dev satisfies this interface. Tests supply
// fakes so no real KMS is needed.
type KMSKeeper interface {
	// Encrypt wraps plaintext key material with the keeper's master key.
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)

	// Decrypt unwraps key material previously wrapped by this keeper.
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)

	// Close releases resources held by the keeper.
	Close() error
}
