package commands

import (
	"fmt"
	"io"

	identityService "github.com/kbalijepalli/dreas/internal/identity/service"
)

// RunGenerateToken creates a bearer token and prints it with its hash.
// The plain token goes to the caller; the hash goes into the identity
// bindings configuration. The plain token is shown only once.
func RunGenerateToken(tokens identityService.TokenService, writer io.Writer) error {
	plainToken, tokenHash, err := tokens.GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	_, _ = fmt.Fprintf(writer, "Bearer token (store securely, shown only once):\n")
	_, _ = fmt.Fprintf(writer, "  %s\n\n", plainToken)
	_, _ = fmt.Fprintf(writer, "Token hash (use in identity bindings):\n")
	_, _ = fmt.Fprintf(writer, "  %s\n", tokenHash)

	return nil
}
