package domain

import (
	"github.com/kbalijepalli/dreas/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// to provide context for cryptographic failures. All errors are mapped to
// appropriate HTTP status codes by the error handling layer.
var (
	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm is not supported.
	//
	// Supported algorithms: AESGCM (AES-256-GCM), ChaCha20 (ChaCha20-Poly1305).
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the cryptographic key size is invalid.
	//
	// All data encryption keys must be exactly 32 bytes (256 bits) for both
	// AES-256-GCM and ChaCha20-Poly1305. This error is also returned when a
	// key provider unwraps key material of the wrong length.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrIntegrity indicates an envelope failed authentication or parsing.
	//
	// This error can occur due to:
	//   - Wrong decryption key used
	//   - Ciphertext, nonce, tag, or policy tag has been tampered with
	//   - Truncated or corrupted envelope bytes
	//
	// For security reasons, the specific cause is not disclosed to prevent
	// information leakage that could aid attackers.
	ErrIntegrity = errors.Wrap(errors.ErrInvalidInput, "integrity check failed")

	// ErrUnsupportedFormat indicates an envelope carries an unknown format version.
	// Such envelopes are rejected before any cryptographic processing.
	ErrUnsupportedFormat = errors.Wrap(errors.ErrInvalidInput, "unsupported envelope format")

	// ErrKeyUnavailable indicates the key management service could not be reached
	// or failed transiently. The operation may succeed on retry.
	ErrKeyUnavailable = errors.Wrap(errors.ErrUnavailable, "key service unavailable")

	// ErrKeyAccessDenied indicates the key management service refused the operation.
	ErrKeyAccessDenied = errors.Wrap(errors.ErrForbidden, "key access denied")

	// ErrKeyNotFound indicates the referenced key handle does not exist.
	ErrKeyNotFound = errors.Wrap(errors.ErrNotFound, "key not found")

	// ErrKeyHandlesNotSet indicates the key handle configuration is empty.
	ErrKeyHandlesNotSet = errors.Wrap(errors.ErrInvalidInput, "key handles not set")

	// ErrActiveKeyHandleNotSet indicates no active key handle was configured.
	ErrActiveKeyHandleNotSet = errors.Wrap(errors.ErrInvalidInput, "active key handle not set")

	// ErrInvalidKeyHandlesFormat indicates the key handle configuration is malformed.
	ErrInvalidKeyHandlesFormat = errors.Wrap(errors.ErrInvalidInput, "invalid key handles format")

	// ErrActiveKeyHandleNotFound indicates the active handle id is not in the chain.
	ErrActiveKeyHandleNotFound = errors.Wrap(errors.ErrInvalidInput, "active key handle not found")
)
