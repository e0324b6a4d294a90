package domain

// Algorithm represents the cryptographic algorithm used for payload encryption.
//
// All supported algorithms provide Authenticated Encryption with Associated Data (AEAD),
// ensuring both confidentiality and authenticity of encrypted data. AEAD prevents both
// unauthorized reading and tampering with encrypted data.
//
// Algorithm selection guidelines:
//   - Use AESGCM on modern CPUs with AES-NI hardware acceleration
//   - Use ChaCha20 on mobile devices or systems without AES-NI
//   - Both provide equivalent 256-bit security when used correctly
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	//
	// AES-GCM (Advanced Encryption Standard in Galois/Counter Mode) combines
	// AES encryption with GMAC authentication. It uses a 256-bit key and
	// provides excellent performance on hardware with AES-NI acceleration.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption algorithm.
	//
	// ChaCha20-Poly1305 combines the ChaCha20 stream cipher with the Poly1305 MAC
	// for authentication. It's designed for high performance on platforms without
	// AES hardware acceleration and is resistant to timing attacks.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

const (
	// DekSize is the size in bytes of a plaintext data encryption key.
	DekSize = 32

	// NonceSize is the size in bytes of the AEAD nonce (96 bits).
	NonceSize = 12

	// TagSize is the size in bytes of the AEAD authentication tag (128 bits).
	TagSize = 16

	// EnvelopeFormatVersion is the current envelope wire format version.
	// Envelopes carrying any other version are rejected without decryption.
	EnvelopeFormatVersion uint16 = 1
)
