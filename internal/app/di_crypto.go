package app

import (
	"fmt"

	cryptoDomain "github.com/kbalijepalli/dreas/internal/crypto/domain"
	cryptoService "github.com/kbalijepalli/dreas/internal/crypto/service"
)

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// KMSService returns the KMS service used to open key handle keepers.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// KeyHandleChain returns the configured key handle chain.
func (c *Container) KeyHandleChain() (*cryptoDomain.KeyHandleChain, error) {
	var err error
	c.keyHandleChainInit.Do(func() {
		c.keyHandleChain, err = c.initKeyHandleChain()
		if err != nil {
			c.initErrors["keyHandleChain"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyHandleChain"]; exists {
		return nil, storedErr
	}
	return c.keyHandleChain, nil
}

// KeyProvider returns the key provider used to wrap and unwrap data keys.
func (c *Container) KeyProvider() (*cryptoService.KeyProviderService, error) {
	var err error
	c.keyProviderInit.Do(func() {
		c.keyProvider, err = c.initKeyProvider()
		if err != nil {
			c.initErrors["keyProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["keyProvider"]; exists {
		return nil, storedErr
	}
	return c.keyProvider, nil
}

// EnvelopeCodec returns the envelope codec for the configured payload cipher.
func (c *Container) EnvelopeCodec() (cryptoService.EnvelopeCodec, error) {
	var err error
	c.envelopeCodecInit.Do(func() {
		c.envelopeCodec, err = c.initEnvelopeCodec()
		if err != nil {
			c.initErrors["envelopeCodec"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["envelopeCodec"]; exists {
		return nil, storedErr
	}
	return c.envelopeCodec, nil
}

// initKeyHandleChain parses the key handle configuration. Every listed handle
// can unwrap; the active handle wraps new data keys.
func (c *Container) initKeyHandleChain() (*cryptoDomain.KeyHandleChain, error) {
	chain, err := cryptoDomain.ParseKeyHandleChain(c.config.KMSKeyHandles, c.config.KMSActiveKeyHandle)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key handle chain: %w", err)
	}
	return chain, nil
}

// initKeyProvider creates the key provider with the KMS service and chain.
func (c *Container) initKeyProvider() (*cryptoService.KeyProviderService, error) {
	chain, err := c.KeyHandleChain()
	if err != nil {
		return nil, fmt.Errorf("failed to get key handle chain: %w", err)
	}

	return cryptoService.NewKeyProvider(c.KMSService(), chain, c.config.KMSOperationTimeout), nil
}

// initEnvelopeCodec creates the envelope codec for the configured algorithm.
func (c *Container) initEnvelopeCodec() (cryptoService.EnvelopeCodec, error) {
	var algorithm cryptoDomain.Algorithm
	switch c.config.AEADAlgorithm {
	case string(cryptoDomain.AESGCM):
		algorithm = cryptoDomain.AESGCM
	case string(cryptoDomain.ChaCha20):
		algorithm = cryptoDomain.ChaCha20
	default:
		return nil, fmt.Errorf("unsupported aead algorithm: %s", c.config.AEADAlgorithm)
	}

	return cryptoService.NewEnvelopeCodec(c.AEADManager(), algorithm), nil
}
