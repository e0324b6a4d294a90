package domain

import (
	"fmt"
	"strings"
	"sync"
)

// KeyHandle identifies a master key held by an external key management service.
//
// The handle carries no key material. It maps a stable identifier, which is
// recorded inside every envelope, to the provider URI used to open a keeper
// for that key (e.g. "gcpkms://...", "awskms://...", "base64key://...").
type KeyHandle struct {
	ID     string
	KeyURI string
}

// KeyHandleChain manages a collection of key handles with one designated as active.
//
// The chain allows for master key rotation: new data keys are always wrapped
// with the active handle, while every listed handle remains available to
// unwrap envelopes produced before the rotation.
//
// Thread safety: the chain uses sync.Map internally for concurrent access.
type KeyHandleChain struct {
	activeID string
	handles  sync.Map
}

// ActiveKeyHandleID returns the id of the handle used to wrap new data keys.
func (c *KeyHandleChain) ActiveKeyHandleID() string {
	return c.activeID
}

// Get retrieves a key handle from the chain by its id.
//
// This is used to locate the keeper for unwrapping envelopes that were
// wrapped with a handle other than the active one.
func (c *KeyHandleChain) Get(id string) (*KeyHandle, bool) {
	if handle, ok := c.handles.Load(id); ok {
		return handle.(*KeyHandle), ok
	}

	return nil, false
}

// IDs returns the ids of all handles in the chain.
func (c *KeyHandleChain) IDs() []string {
	var ids []string
	c.handles.Range(func(key, _ any) bool {
		ids = append(ids, key.(string))
		return true
	})
	return ids
}

// Close resets the chain.
func (c *KeyHandleChain) Close() {
	c.activeID = ""
	c.handles.Clear()
}

// ParseKeyHandleChain builds a KeyHandleChain from configuration values.
//
// The raw value is a comma-separated list of entries in the form
// "handle-id=key-uri". The active id must name one of the listed handles.
//
// Format example:
//
//	KMS_KEY_HANDLES="primary=gcpkms://projects/p/locations/l/keyRings/r/cryptoKeys/k,legacy=base64key://c2VjcmV0..."
//	KMS_ACTIVE_KEY_HANDLE="primary"
//
// Returns:
//   - A fully initialized KeyHandleChain ready for use
//   - ErrKeyHandlesNotSet if raw is empty
//   - ErrActiveKeyHandleNotSet if active is empty
//   - ErrInvalidKeyHandlesFormat if an entry is malformed
//   - ErrActiveKeyHandleNotFound if the active id is not in the chain
func ParseKeyHandleChain(raw, active string) (*KeyHandleChain, error) {
	if raw == "" {
		return nil, ErrKeyHandlesNotSet
	}

	if active == "" {
		return nil, ErrActiveKeyHandleNotSet
	}

	chain := &KeyHandleChain{activeID: active}

	parts := strings.SplitSeq(raw, ",")
	for part := range parts {
		p := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(p) != 2 || p[0] == "" || p[1] == "" {
			chain.Close()
			return nil, fmt.Errorf("%w: %q", ErrInvalidKeyHandlesFormat, part)
		}
		chain.handles.Store(p[0], &KeyHandle{ID: p[0], KeyURI: p[1]})
	}

	if _, ok := chain.Get(active); !ok {
		chain.Close()
		return nil, fmt.Errorf("%w: KMS_ACTIVE_KEY_HANDLE=%s", ErrActiveKeyHandleNotFound, active)
	}

	return chain, nil
}
