package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	cryptoDomain "github.com/kbalijepalli/dreas/internal/crypto/domain"
	apperrors "github.com/kbalijepalli/dreas/internal/errors"
	"github.com/kbalijepalli/dreas/internal/httputil"
	"github.com/kbalijepalli/dreas/internal/security/http/dto"
	securityUseCase "github.com/kbalijepalli/dreas/internal/security/usecase"
	customValidation "github.com/kbalijepalli/dreas/internal/validation"
)

// SecurityHandler handles HTTP requests for sealing and opening envelopes.
// Authentication, authorization, and audit logging happen inside the facade.
type SecurityHandler struct {
	securityUseCase securityUseCase.SecurityUseCase
	logger          *slog.Logger
}

// NewSecurityHandler creates a new security handler with required dependencies.
func NewSecurityHandler(
	useCase securityUseCase.SecurityUseCase,
	logger *slog.Logger,
) *SecurityHandler {
	return &SecurityHandler{
		securityUseCase: useCase,
		logger:          logger,
	}
}

// tokenFromContext fetches the bearer token stored by the middleware.
// A missing token means the middleware did not run; the request is rejected.
func tokenFromContext(c *gin.Context, logger *slog.Logger) (string, bool) {
	token, ok := GetToken(c.Request.Context())
	if !ok || token == "" {
		logger.Error("handler invoked without bearer token in context")
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, logger)
		return "", false
	}
	return token, true
}

// ProtectHandler seals a payload under a fresh data key.
// POST /v1/protect - Requires the encrypt capability and a policy grant.
// Returns 201 Created with the marshaled envelope (base64) and its ref.
func (h *SecurityHandler) ProtectHandler(c *gin.Context) {
	token, ok := tokenFromContext(c, h.logger)
	if !ok {
		return
	}

	var req dto.ProtectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	plaintext, err := base64.StdEncoding.DecodeString(req.Value)
	if err != nil {
		httputil.HandleValidationErrorGin(
			c,
			fmt.Errorf("invalid base64 value: %w", err),
			h.logger,
		)
		return
	}
	defer cryptoDomain.Zero(plaintext)

	output, err := h.securityUseCase.Protect(c.Request.Context(), token, plaintext, req.PolicyTag)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapProtectOutputToResponse(output))
}

// RevealHandler opens an envelope and returns its plaintext.
// POST /v1/reveal - Requires the decrypt capability and a policy grant.
// Returns 200 OK with the plaintext (base64). The buffer is zeroed after the
// response is built.
func (h *SecurityHandler) RevealHandler(c *gin.Context) {
	token, ok := tokenFromContext(c, h.logger)
	if !ok {
		return
	}

	var req dto.RevealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	envelope, err := base64.StdEncoding.DecodeString(req.Envelope)
	if err != nil {
		httputil.HandleValidationErrorGin(
			c,
			fmt.Errorf("invalid base64 envelope: %w", err),
			h.logger,
		)
		return
	}

	plaintext, err := h.securityUseCase.Reveal(c.Request.Context(), token, envelope)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapPlaintextToRevealResponse(plaintext)
	cryptoDomain.Zero(plaintext)

	c.JSON(http.StatusOK, response)
}
