package service

import (
	"fmt"

	cryptoDomain "github.com/kbalijepalli/dreas/internal/crypto/domain"
)

// EnvelopeCodecService implements the EnvelopeCodec interface.
//
// The codec encrypts payloads under a caller-supplied data key with the
// configured AEAD algorithm and binds the policy tag to the ciphertext as
// associated data. A tampered ciphertext, nonce, tag, or policy tag all fail
// authentication the same way, with ErrIntegrity and no detail about which
// part was altered.
type EnvelopeCodecService struct {
	aeadManager AEADManager
	algorithm   cryptoDomain.Algorithm
}

// NewEnvelopeCodec creates an EnvelopeCodecService using the given AEAD
// manager and payload algorithm.
func NewEnvelopeCodec(
	aeadManager AEADManager,
	algorithm cryptoDomain.Algorithm,
) *EnvelopeCodecService {
	return &EnvelopeCodecService{
		aeadManager: aeadManager,
		algorithm:   algorithm,
	}
}

// Seal encrypts plaintext under the data key and returns a partially filled
// envelope.
//
// The AEAD output is split into ciphertext and the trailing 16-byte
// authentication tag so the envelope stores them separately. The policy tag
// is authenticated as associated data but not encrypted. The caller fills in
// KeyHandleID and WrappedDek before the envelope is marshaled.
//
// An empty plaintext is valid and produces an envelope whose ciphertext is
// empty but still authenticated.
func (ec *EnvelopeCodecService) Seal(
	dek, plaintext []byte,
	policyTag string,
) (*cryptoDomain.Envelope, error) {
	aead, err := ec.aeadManager.CreateCipher(dek, ec.algorithm)
	if err != nil {
		return nil, err
	}

	sealed, nonce, err := aead.Encrypt(plaintext, []byte(policyTag))
	if err != nil {
		return nil, fmt.Errorf("failed to seal payload: %w", err)
	}

	if len(sealed) < cryptoDomain.TagSize {
		return nil, fmt.Errorf("%w: sealed payload too short", cryptoDomain.ErrIntegrity)
	}

	tagStart := len(sealed) - cryptoDomain.TagSize
	return &cryptoDomain.Envelope{
		FormatVersion: cryptoDomain.EnvelopeFormatVersion,
		Nonce:         nonce,
		Ciphertext:    sealed[:tagStart],
		AuthTag:       sealed[tagStart:],
		PolicyTag:     policyTag,
	}, nil
}

// Open authenticates and decrypts an envelope using the data key.
//
// The envelope's ciphertext and tag are recombined and verified against the
// nonce and policy tag. Any mismatch returns ErrIntegrity without revealing
// the cause.
func (ec *EnvelopeCodecService) Open(
	dek []byte,
	env *cryptoDomain.Envelope,
) ([]byte, error) {
	if env.FormatVersion != cryptoDomain.EnvelopeFormatVersion {
		return nil, fmt.Errorf(
			"%w: version %d",
			cryptoDomain.ErrUnsupportedFormat,
			env.FormatVersion,
		)
	}

	aead, err := ec.aeadManager.CreateCipher(dek, ec.algorithm)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(env.Ciphertext)+len(env.AuthTag))
	sealed = append(sealed, env.Ciphertext...)
	sealed = append(sealed, env.AuthTag...)

	plaintext, err := aead.Decrypt(sealed, env.Nonce, []byte(env.PolicyTag))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrIntegrity, err)
	}

	return plaintext, nil
}
