package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	cryptoDomain "github.com/kbalijepalli/dreas/internal/crypto/domain"
	escrowDomain "github.com/kbalijepalli/dreas/internal/escrow/domain"
	"github.com/kbalijepalli/dreas/internal/httputil"
	"github.com/kbalijepalli/dreas/internal/security/http/dto"
	securityUseCase "github.com/kbalijepalli/dreas/internal/security/usecase"
	customValidation "github.com/kbalijepalli/dreas/internal/validation"
)

// EscrowHandler handles HTTP requests for the break-glass workflow.
// Authentication, authorization, and audit logging happen inside the facade.
type EscrowHandler struct {
	securityUseCase securityUseCase.SecurityUseCase
	logger          *slog.Logger
}

// NewEscrowHandler creates a new escrow handler with required dependencies.
func NewEscrowHandler(
	useCase securityUseCase.SecurityUseCase,
	logger *slog.Logger,
) *EscrowHandler {
	return &EscrowHandler{
		securityUseCase: useCase,
		logger:          logger,
	}
}

// requestIDFromParam parses the :id URL parameter as a UUID.
func requestIDFromParam(c *gin.Context, logger *slog.Logger) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(
			c,
			fmt.Errorf("invalid request id: %w", err),
			logger,
		)
		return uuid.Nil, false
	}
	return id, true
}

// InitiateHandler opens a break-glass request for an envelope.
// POST /v1/escrow/requests - Requires the escrow-redeem capability.
// Returns 201 Created with the pending request.
func (h *EscrowHandler) InitiateHandler(c *gin.Context) {
	token, ok := tokenFromContext(c, h.logger)
	if !ok {
		return
	}

	var req dto.InitiateEscrowRequest
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

	request, err := h.securityUseCase.InitiateEscrow(c.Request.Context(), token, envelope, req.Justification)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapEscrowRequestToResponse(request))
}

// ApproveHandler records an approval on a pending request.
// POST /v1/escrow/requests/:id/approve - Requires the escrow-approve capability.
// Returns 200 OK with the updated request.
func (h *EscrowHandler) ApproveHandler(c *gin.Context) {
	token, ok := tokenFromContext(c, h.logger)
	if !ok {
		return
	}

	id, ok := requestIDFromParam(c, h.logger)
	if !ok {
		return
	}

	request, err := h.securityUseCase.ApproveEscrow(c.Request.Context(), token, id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEscrowRequestToResponse(request))
}

// DenyHandler rejects a non-terminal request.
// POST /v1/escrow/requests/:id/deny - Requires the escrow-approve capability.
// Returns 200 OK with the denied request.
func (h *EscrowHandler) DenyHandler(c *gin.Context) {
	token, ok := tokenFromContext(c, h.logger)
	if !ok {
		return
	}

	id, ok := requestIDFromParam(c, h.logger)
	if !ok {
		return
	}

	request, err := h.securityUseCase.DenyEscrow(c.Request.Context(), token, id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEscrowRequestToResponse(request))
}

// RedeemHandler releases an approved request's plaintext exactly once.
// POST /v1/escrow/requests/:id/redeem - Requires the escrow-redeem capability.
// Returns 200 OK with the plaintext (base64). The buffer is zeroed after the
// response is built.
func (h *EscrowHandler) RedeemHandler(c *gin.Context) {
	token, ok := tokenFromContext(c, h.logger)
	if !ok {
		return
	}

	id, ok := requestIDFromParam(c, h.logger)
	if !ok {
		return
	}

	plaintext, request, err := h.securityUseCase.RedeemEscrow(c.Request.Context(), token, id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.MapRedemptionToResponse(plaintext, request)
	cryptoDomain.Zero(plaintext)

	c.JSON(http.StatusOK, response)
}

// GetHandler retrieves a single request.
// GET /v1/escrow/requests/:id - Requires an escrow capability.
func (h *EscrowHandler) GetHandler(c *gin.Context) {
	token, ok := tokenFromContext(c, h.logger)
	if !ok {
		return
	}

	id, ok := requestIDFromParam(c, h.logger)
	if !ok {
		return
	}

	request, err := h.securityUseCase.GetEscrow(c.Request.Context(), token, id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEscrowRequestToResponse(request))
}

// ListHandler lists requests matching optional filters.
// GET /v1/escrow/requests?requester=&state=&offset=&limit= - Requires an
// escrow capability.
func (h *EscrowHandler) ListHandler(c *gin.Context) {
	token, ok := tokenFromContext(c, h.logger)
	if !ok {
		return
	}

	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	filter := escrowDomain.Filter{
		Requester: c.Query("requester"),
		Offset:    offset,
		Limit:     limit,
	}

	if stateStr := c.Query("state"); stateStr != "" {
		state := escrowDomain.State(stateStr)
		switch state {
		case escrowDomain.PendingState, escrowDomain.ApprovedState,
			escrowDomain.RedeemedState, escrowDomain.DeniedState,
			escrowDomain.ExpiredState:
			filter.State = state
		default:
			httputil.HandleValidationErrorGin(
				c,
				fmt.Errorf("invalid state: %q", stateStr),
				h.logger,
			)
			return
		}
	}

	requests, err := h.securityUseCase.ListEscrow(c.Request.Context(), token, filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEscrowRequestsToListResponse(requests))
}

// StatsHandler summarizes requests by state.
// GET /v1/escrow/stats - Requires an escrow capability.
func (h *EscrowHandler) StatsHandler(c *gin.Context) {
	token, ok := tokenFromContext(c, h.logger)
	if !ok {
		return
	}

	stats, err := h.securityUseCase.EscrowStats(c.Request.Context(), token)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEscrowStatsToResponse(stats))
}
