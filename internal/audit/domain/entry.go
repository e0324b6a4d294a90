// Package domain defines the append-only audit ledger domain model.
//
// Every security-relevant operation produces exactly one entry. Entries are
// hash-chained: each entry's hash covers its predecessor's hash, so altering
// or removing any historical entry breaks verification of every entry after
// it. Entries are never updated or deleted.
package domain

import (
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/google/uuid"
)

// Operation identifies the security operation an audit entry records.
type Operation string

const (
	// ProtectOperation records sealing plaintext into an envelope.
	ProtectOperation Operation = "protect"

	// RevealOperation records opening an envelope.
	RevealOperation Operation = "reveal"

	// EscrowInitiateOperation records the creation of an escrow request.
	EscrowInitiateOperation Operation = "escrow-initiate"

	// EscrowApproveOperation records an approval vote on an escrow request.
	EscrowApproveOperation Operation = "escrow-approve"

	// EscrowDenyOperation records the denial of an escrow request.
	EscrowDenyOperation Operation = "escrow-deny"

	// EscrowRedeemOperation records an escrow redemption attempt.
	EscrowRedeemOperation Operation = "escrow-redeem"

	// AuditQueryOperation records a read of the ledger itself.
	AuditQueryOperation Operation = "audit-query"
)

// Outcome classifies how the recorded operation ended.
type Outcome string

const (
	// SuccessOutcome means the operation completed.
	SuccessOutcome Outcome = "success"

	// DeniedOutcome means the operation was refused by authorization.
	DeniedOutcome Outcome = "denied"

	// ErrorOutcome means the operation failed for any other reason.
	ErrorOutcome Outcome = "error"
)

// HashSize is the size in bytes of an entry hash (SHA-256).
const HashSize = 32

// GenesisHash returns the prior hash of the first ledger entry: 32 zero bytes.
func GenesisHash() []byte {
	return make([]byte, HashSize)
}

// Entry is a single immutable record in the audit ledger.
type Entry struct {
	ID         uuid.UUID // Unique identifier (UUIDv7)
	SequenceNo uint64    // Position in the chain, starting at 1, no gaps
	Timestamp  time.Time // When the operation was recorded (UTC)
	Principal  string    // Principal that performed the operation
	Operation  Operation
	Outcome    Outcome
	TargetRef  string // Reference to the affected object (envelope ref, escrow id)
	Detail     string // Optional human-readable context
	PriorHash  []byte // EntryHash of the predecessor, GenesisHash for entry 1
	EntryHash  []byte // SHA-256 over Canonical()
}

// Canonical returns the deterministic byte representation of the entry that
// its hash covers.
//
// Format: prior hash (32 bytes) || id (16 bytes) || sequence (8 bytes BE) ||
// timestamp unix nanos (8 bytes BE), followed by principal, operation,
// outcome, target ref, and detail, each with a 4-byte big-endian length
// prefix. Length-prefixed encoding of variable-length fields prevents
// ambiguity.
func (e *Entry) Canonical() []byte {
	buf := make([]byte, 0, 512)

	buf = append(buf, e.PriorHash...)
	buf = append(buf, e.ID[:]...)

	seq := make([]byte, 8)
	binary.BigEndian.PutUint64(seq, e.SequenceNo)
	buf = append(buf, seq...)

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(e.Timestamp.UnixNano()))
	buf = append(buf, ts...)

	buf = appendLengthPrefixed(buf, []byte(e.Principal))
	buf = appendLengthPrefixed(buf, []byte(string(e.Operation)))
	buf = appendLengthPrefixed(buf, []byte(string(e.Outcome)))
	buf = appendLengthPrefixed(buf, []byte(e.TargetRef))
	buf = appendLengthPrefixed(buf, []byte(e.Detail))

	return buf
}

// ComputeHash returns the SHA-256 digest of the entry's canonical form.
func (e *Entry) ComputeHash() []byte {
	sum := sha256.Sum256(e.Canonical())
	return sum[:]
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	buf = append(buf, length...)
	buf = append(buf, data...)
	return buf
}
