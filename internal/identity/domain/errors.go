package domain

import (
	"github.com/kbalijepalli/dreas/internal/errors"
)

// Identity error definitions.
var (
	// ErrUnknownPrincipal indicates the presented token does not map to any
	// configured principal.
	ErrUnknownPrincipal = errors.Wrap(errors.ErrUnauthorized, "unknown principal")

	// ErrAccessDenied indicates an authenticated principal lacks the
	// capability or policy grant required for the operation.
	ErrAccessDenied = errors.Wrap(errors.ErrForbidden, "access denied")

	// ErrIdentityUnavailable indicates the identity resolver could not be
	// consulted. The request fails closed.
	ErrIdentityUnavailable = errors.Wrap(errors.ErrUnavailable, "identity resolver unavailable")

	// ErrInvalidBindings indicates the static identity binding configuration
	// is malformed.
	ErrInvalidBindings = errors.Wrap(errors.ErrInvalidInput, "invalid identity bindings")
)
