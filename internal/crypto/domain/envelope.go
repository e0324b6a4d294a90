package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Envelope is the self-contained encrypted representation of a payload.
//
// It carries everything needed to recover the plaintext except the master key:
// the wrapped data encryption key, the identity of the key handle that wrapped
// it, the AEAD nonce and authentication tag, and the policy tag that was bound
// to the ciphertext as associated data. The plaintext data key is never stored.
type Envelope struct {
	// FormatVersion is the wire format version. Only EnvelopeFormatVersion
	// is accepted; anything else is rejected without decryption.
	FormatVersion uint16

	// KeyHandleID identifies the key handle whose master key wrapped the DEK.
	KeyHandleID string

	// WrappedDek is the data encryption key wrapped by the key service.
	WrappedDek []byte

	// Nonce is the 12-byte AEAD nonce, unique per encryption.
	Nonce []byte

	// Ciphertext is the encrypted payload without the authentication tag.
	Ciphertext []byte

	// AuthTag is the 16-byte AEAD authentication tag.
	AuthTag []byte

	// PolicyTag is the caller-supplied classification label. It is bound to
	// the ciphertext as associated data, so it cannot be altered without
	// failing authentication.
	PolicyTag string
}

// MarshalBinary serializes the envelope into its versioned wire format.
//
// Layout: a 2-byte big-endian format version followed by each field as a
// 4-byte big-endian length prefix plus the field bytes. Length-prefixed
// encoding of variable-length fields prevents ambiguity.
func (e *Envelope) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 2+6*4+len(e.KeyHandleID)+len(e.WrappedDek)+
		len(e.Nonce)+len(e.Ciphertext)+len(e.AuthTag)+len(e.PolicyTag))

	version := make([]byte, 2)
	binary.BigEndian.PutUint16(version, e.FormatVersion)
	buf = append(buf, version...)

	buf = appendLengthPrefixed(buf, []byte(e.KeyHandleID))
	buf = appendLengthPrefixed(buf, e.WrappedDek)
	buf = appendLengthPrefixed(buf, e.Nonce)
	buf = appendLengthPrefixed(buf, e.Ciphertext)
	buf = appendLengthPrefixed(buf, e.AuthTag)
	buf = appendLengthPrefixed(buf, []byte(e.PolicyTag))

	return buf, nil
}

// UnmarshalEnvelope parses envelope bytes produced by MarshalBinary.
//
// Returns ErrUnsupportedFormat if the format version is unknown, and
// ErrIntegrity if the bytes are truncated or otherwise malformed.
func UnmarshalEnvelope(data []byte) (*Envelope, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: truncated envelope", ErrIntegrity)
	}

	version := binary.BigEndian.Uint16(data[:2])
	if version != EnvelopeFormatVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedFormat, version)
	}

	offset := 2
	fields := make([][]byte, 6)
	for i := range fields {
		field, next, err := readLengthPrefixed(data, offset)
		if err != nil {
			return nil, err
		}
		fields[i] = field
		offset = next
	}

	if offset != len(data) {
		return nil, fmt.Errorf("%w: trailing bytes", ErrIntegrity)
	}

	return &Envelope{
		FormatVersion: version,
		KeyHandleID:   string(fields[0]),
		WrappedDek:    fields[1],
		Nonce:         fields[2],
		Ciphertext:    fields[3],
		AuthTag:       fields[4],
		PolicyTag:     string(fields[5]),
	}, nil
}

// Ref returns a stable hex-encoded SHA-256 digest of the marshaled envelope,
// used to reference the envelope in audit entries and escrow requests without
// duplicating ciphertext.
func (e *Envelope) Ref() string {
	data, _ := e.MarshalBinary()
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
// Panics if data length exceeds uint32 max to prevent integer overflow.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	dataLen := len(data)
	if dataLen > 0xFFFFFFFF {
		panic("data length exceeds uint32 max")
	}
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(dataLen))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}

// readLengthPrefixed reads a length-prefixed field starting at offset and
// returns the field bytes plus the offset of the next field.
func readLengthPrefixed(data []byte, offset int) ([]byte, int, error) {
	if offset+4 > len(data) {
		return nil, 0, fmt.Errorf("%w: truncated length prefix", ErrIntegrity)
	}
	length := int(binary.BigEndian.Uint32(data[offset : offset+4]))
	offset += 4
	if offset+length > len(data) {
		return nil, 0, fmt.Errorf("%w: truncated field", ErrIntegrity)
	}
	field := make([]byte, length)
	copy(field, data[offset:offset+length])
	return field, offset + length, nil
}
