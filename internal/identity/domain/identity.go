// Package domain defines identity and authorization domain models.
//
// Principals authenticate with bearer tokens and are authorized through
// capabilities, which gate operations, and policy patterns, which gate the
// data classifications a principal may reveal.
package domain

import (
	"slices"
	"strings"
)

// Capability represents an operation a principal is allowed to perform.
type Capability string

const (
	// EncryptCapability allows sealing plaintext into envelopes.
	EncryptCapability Capability = "encrypt"

	// DecryptCapability allows opening envelopes back into plaintext.
	DecryptCapability Capability = "decrypt"

	// EscrowApproveCapability allows approving break-glass escrow requests.
	EscrowApproveCapability Capability = "escrow-approve"

	// EscrowRedeemCapability allows initiating and redeeming escrow requests.
	EscrowRedeemCapability Capability = "escrow-redeem"

	// AuditReadCapability allows querying the audit ledger.
	AuditReadCapability Capability = "audit-read"
)

// Identity represents an authenticated principal with its authorization grants.
type Identity struct {
	Principal    string       // Stable principal name recorded in audit entries
	Role         string       // Human-readable role (e.g., "operator", "auditor")
	Capabilities []Capability // Operations this principal may perform
	Policies     []string     // Policy tag patterns this principal may reveal
}

// HasCapability reports whether the identity holds the given capability.
func (i *Identity) HasCapability(capability Capability) bool {
	if capability == "" {
		return false
	}
	return slices.Contains(i.Capabilities, capability)
}

// AllowsPolicy reports whether any of the identity's policy patterns matches
// the given policy tag.
//
// Pattern matching rules:
//   - "*" matches every policy tag
//   - Exact match: "pii" matches only "pii"
//   - Trailing wildcard: "pii/*" matches "pii/eu", "pii/eu/de", etc. (greedy)
//   - Mid-path wildcard: "pii/*/archived" matches "pii/eu/archived"
//   - Case-sensitive: "PII" does NOT match "pii"
func (i *Identity) AllowsPolicy(policyTag string) bool {
	if policyTag == "" {
		return false
	}

	for _, pattern := range i.Policies {
		if matchPolicy(pattern, policyTag) {
			return true
		}
	}

	return false
}

// matchPolicy checks if the policy tag matches the pattern.
// Supports three types of wildcards:
//  1. Full wildcard: "*" matches any tag
//  2. Trailing wildcard: "prefix/*" matches any tag starting with "prefix/" (greedy)
//  3. Mid-path wildcard: "pii/*/archived" matches tags with * as single segment
func matchPolicy(pattern, policyTag string) bool {
	// Special case: full wildcard matches everything
	if pattern == "*" {
		return true
	}

	// No wildcard: exact match required
	if !strings.Contains(pattern, "*") {
		return pattern == policyTag
	}

	// Trailing wildcard (/*): prefix match (greedy - matches remaining segments)
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		return strings.HasPrefix(policyTag, prefix+"/")
	}

	// Mid-path wildcards: segment-by-segment matching
	// Each * matches exactly one segment
	patternParts := strings.Split(pattern, "/")
	tagParts := strings.Split(policyTag, "/")

	if len(patternParts) != len(tagParts) {
		return false
	}

	for i := range patternParts {
		if patternParts[i] == "*" {
			continue
		}
		if patternParts[i] != tagParts[i] {
			return false
		}
	}

	return true
}
