package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"gocloud.dev/gcerrors"

	cryptoDomain "github.com/kbalijepalli/dreas/internal/crypto/domain"
)

// KeyProviderService implements the KeyProvider interface on top of an
// external key management service.
//
// The service generates random 32-byte data keys locally and delegates the
// wrap and unwrap operations to keepers opened through the KMSService. One
// keeper is opened lazily per key handle and cached for reuse. The master
// keys themselves never leave the KMS.
//
// Wrap always uses the active handle in the chain. Unwrap accepts any handle
// in the chain, which keeps envelopes wrapped before a rotation readable.
type KeyProviderService struct {
	kms     KMSService
	chain   *cryptoDomain.KeyHandleChain
	timeout time.Duration

	mu      sync.Mutex
	keepers map[string]cryptoDomain.KMSKeeper
}

// NewKeyProvider creates a KeyProviderService using the given keeper opener,
// key handle chain, and per-operation timeout.
func NewKeyProvider(
	kms KMSService,
	chain *cryptoDomain.KeyHandleChain,
	timeout time.Duration,
) *KeyProviderService {
	return &KeyProviderService{
		kms:     kms,
		chain:   chain,
		timeout: timeout,
		keepers: make(map[string]cryptoDomain.KMSKeeper),
	}
}

// GenerateDek generates a fresh 32-byte data key and wraps it with the active
// key handle.
//
// The plaintext key is returned to the caller for immediate use and must be
// zeroed after. If wrapping fails, the generated key is zeroed before the
// error is returned so no key material outlives the call.
func (kp *KeyProviderService) GenerateDek(
	ctx context.Context,
) (plaintext, wrapped []byte, keyHandleID string, err error) {
	dek := make([]byte, cryptoDomain.DekSize)
	if _, err := rand.Read(dek); err != nil {
		return nil, nil, "", fmt.Errorf("failed to generate data key: %w", err)
	}

	activeID := kp.chain.ActiveKeyHandleID()
	keeper, err := kp.keeper(ctx, activeID)
	if err != nil {
		cryptoDomain.Zero(dek)
		return nil, nil, "", err
	}

	opCtx, cancel := context.WithTimeout(ctx, kp.timeout)
	defer cancel()

	wrapped, err = keeper.Encrypt(opCtx, dek)
	if err != nil {
		cryptoDomain.Zero(dek)
		return nil, nil, "", mapKeeperError(err)
	}

	return dek, wrapped, activeID, nil
}

// UnwrapDek unwraps a data key using the named key handle.
//
// Returns ErrKeyNotFound if the handle is not in the configured chain, and
// ErrInvalidKeySize if the unwrapped material is not exactly 32 bytes. In the
// latter case the material is zeroed before returning.
func (kp *KeyProviderService) UnwrapDek(
	ctx context.Context,
	keyHandleID string,
	wrapped []byte,
) ([]byte, error) {
	if _, ok := kp.chain.Get(keyHandleID); !ok {
		return nil, fmt.Errorf("%w: key handle %s", cryptoDomain.ErrKeyNotFound, keyHandleID)
	}

	keeper, err := kp.keeper(ctx, keyHandleID)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, kp.timeout)
	defer cancel()

	dek, err := keeper.Decrypt(opCtx, wrapped)
	if err != nil {
		return nil, mapKeeperError(err)
	}

	if len(dek) != cryptoDomain.DekSize {
		cryptoDomain.Zero(dek)
		return nil, fmt.Errorf(
			"%w: unwrapped key is %d bytes",
			cryptoDomain.ErrInvalidKeySize,
			len(dek),
		)
	}

	return dek, nil
}

// Close closes all cached keepers. The first close error is returned.
func (kp *KeyProviderService) Close() error {
	kp.mu.Lock()
	defer kp.mu.Unlock()

	var firstErr error
	for id, keeper := range kp.keepers {
		if err := keeper.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close keeper %s: %w", id, err)
		}
		delete(kp.keepers, id)
	}
	return firstErr
}

// keeper returns the cached keeper for the handle, opening it on first use.
func (kp *KeyProviderService) keeper(
	ctx context.Context,
	keyHandleID string,
) (cryptoDomain.KMSKeeper, error) {
	kp.mu.Lock()
	defer kp.mu.Unlock()

	if keeper, ok := kp.keepers[keyHandleID]; ok {
		return keeper, nil
	}

	handle, ok := kp.chain.Get(keyHandleID)
	if !ok {
		return nil, fmt.Errorf("%w: key handle %s", cryptoDomain.ErrKeyNotFound, keyHandleID)
	}

	keeper, err := kp.kms.OpenKeeper(ctx, handle.KeyURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrKeyUnavailable, err)
	}

	kp.keepers[keyHandleID] = keeper
	return keeper, nil
}

// mapKeeperError translates keeper failures into domain errors using the
// gocloud.dev error codes.
func mapKeeperError(err error) error {
	switch gcerrors.Code(err) {
	case gcerrors.NotFound:
		return fmt.Errorf("%w: %v", cryptoDomain.ErrKeyNotFound, err)
	case gcerrors.PermissionDenied:
		return fmt.Errorf("%w: %v", cryptoDomain.ErrKeyAccessDenied, err)
	case gcerrors.InvalidArgument:
		return fmt.Errorf("%w: %v", cryptoDomain.ErrIntegrity, err)
	default:
		return fmt.Errorf("%w: %v", cryptoDomain.ErrKeyUnavailable, err)
	}
}
