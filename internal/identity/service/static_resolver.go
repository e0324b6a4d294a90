package service

import (
	"context"
	"fmt"
	"strings"

	identityDomain "github.com/kbalijepalli/dreas/internal/identity/domain"
)

// staticResolver implements Resolver from a static binding table.
//
// Bindings are loaded once at startup from configuration. Tokens are stored
// as SHA-256 hashes, so the configuration never holds plaintext credentials.
// Production deployments that need a live identity provider supply their own
// Resolver implementation.
type staticResolver struct {
	tokens      TokenService
	byTokenHash map[string]*identityDomain.Identity
}

// NewStaticResolver builds a Resolver from the binding configuration string.
//
// Bindings are semicolon-separated entries in the form
// "principal:role:cap1|cap2:policy1|policy2:tokenhash". Capabilities and
// policies within an entry are pipe-separated. Example:
//
//	IDENTITY_BINDINGS="alice:operator:encrypt|decrypt:pii/*:3f6a...;bob:approver:escrow-approve::a1b2..."
//
// Returns ErrInvalidBindings if an entry is malformed or a token hash is
// duplicated.
func NewStaticResolver(tokens TokenService, bindings string) (Resolver, error) {
	resolver := &staticResolver{
		tokens:      tokens,
		byTokenHash: make(map[string]*identityDomain.Identity),
	}

	for entry := range strings.SplitSeq(bindings, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) != 5 {
			return nil, fmt.Errorf(
				"%w: entry %q must have 5 fields",
				identityDomain.ErrInvalidBindings,
				entry,
			)
		}

		principal, role, tokenHash := parts[0], parts[1], parts[4]
		if principal == "" || tokenHash == "" {
			return nil, fmt.Errorf(
				"%w: entry %q missing principal or token hash",
				identityDomain.ErrInvalidBindings,
				entry,
			)
		}

		if _, exists := resolver.byTokenHash[tokenHash]; exists {
			return nil, fmt.Errorf(
				"%w: duplicate token hash for principal %s",
				identityDomain.ErrInvalidBindings,
				principal,
			)
		}

		resolver.byTokenHash[tokenHash] = &identityDomain.Identity{
			Principal:    principal,
			Role:         role,
			Capabilities: parseCapabilities(parts[2]),
			Policies:     parseList(parts[3]),
		}
	}

	return resolver, nil
}

// Resolve maps a bearer token to the identity it authenticates.
func (r *staticResolver) Resolve(
	_ context.Context,
	token string,
) (*identityDomain.Identity, error) {
	identity, ok := r.byTokenHash[r.tokens.HashToken(token)]
	if !ok {
		return nil, identityDomain.ErrUnknownPrincipal
	}
	return identity, nil
}

func parseCapabilities(raw string) []identityDomain.Capability {
	var capabilities []identityDomain.Capability
	for _, item := range parseList(raw) {
		capabilities = append(capabilities, identityDomain.Capability(item))
	}
	return capabilities
}

func parseList(raw string) []string {
	var items []string
	for item := range strings.SplitSeq(raw, "|") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
