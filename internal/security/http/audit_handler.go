package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	auditDomain "github.com/kbalijepalli/dreas/internal/audit/domain"
	"github.com/kbalijepalli/dreas/internal/httputil"
	"github.com/kbalijepalli/dreas/internal/security/http/dto"
	securityUseCase "github.com/kbalijepalli/dreas/internal/security/usecase"
)

// AuditHandler handles HTTP requests for reading the audit ledger.
// Access checks and read auditing happen inside the facade.
type AuditHandler struct {
	securityUseCase securityUseCase.SecurityUseCase
	logger          *slog.Logger
}

// NewAuditHandler creates a new audit handler with required dependencies.
func NewAuditHandler(
	useCase securityUseCase.SecurityUseCase,
	logger *slog.Logger,
) *AuditHandler {
	return &AuditHandler{
		securityUseCase: useCase,
		logger:          logger,
	}
}

// parseAuditFilter builds a ledger filter from query parameters.
func parseAuditFilter(c *gin.Context) (*auditDomain.Filter, error) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		return nil, err
	}

	filter := &auditDomain.Filter{
		Principal: c.Query("principal"),
		Operation: auditDomain.Operation(c.Query("operation")),
		Outcome:   auditDomain.Outcome(c.Query("outcome")),
		Offset:    offset,
		Limit:     limit,
	}

	if fromStr := c.Query("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return nil, fmt.Errorf("invalid from timestamp: %w", err)
		}
		filter.From = &from
	}

	if toStr := c.Query("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return nil, fmt.Errorf("invalid to timestamp: %w", err)
		}
		filter.To = &to
	}

	return filter, nil
}

// QueryHandler lists ledger entries matching optional filters.
// GET /v1/audit?principal=&operation=&outcome=&from=&to=&offset=&limit= -
// Requires the audit-read capability.
func (h *AuditHandler) QueryHandler(c *gin.Context) {
	token, ok := tokenFromContext(c, h.logger)
	if !ok {
		return
	}

	filter, err := parseAuditFilter(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	entries, err := h.securityUseCase.AuditQuery(c.Request.Context(), token, filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAuditEntriesToListResponse(entries))
}

// ReportHandler summarizes ledger activity.
// GET /v1/audit/report?principal=&operation=&outcome=&from=&to= - Requires
// the audit-read capability.
func (h *AuditHandler) ReportHandler(c *gin.Context) {
	token, ok := tokenFromContext(c, h.logger)
	if !ok {
		return
	}

	filter, err := parseAuditFilter(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	report, err := h.securityUseCase.AuditReport(c.Request.Context(), token, filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAuditReportToResponse(report))
}

// VerifyHandler checks ledger integrity over a sequence range.
// GET /v1/audit/verify?from=&to= - Requires the audit-read capability.
// A "to" of 0 (or absent) verifies through the head.
func (h *AuditHandler) VerifyHandler(c *gin.Context) {
	token, ok := tokenFromContext(c, h.logger)
	if !ok {
		return
	}

	fromSeq, err := parseSequence(c.Query("from"), 1)
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid from sequence: %w", err), h.logger)
		return
	}

	toSeq, err := parseSequence(c.Query("to"), 0)
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid to sequence: %w", err), h.logger)
		return
	}

	verified, err := h.securityUseCase.VerifyAuditChain(c.Request.Context(), token, fromSeq, toSeq)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.VerifyChainResponse{
		Status:   "ok",
		Verified: verified,
	})
}

// parseSequence parses a sequence query parameter, falling back to def when
// the parameter is absent.
func parseSequence(value string, def uint64) (uint64, error) {
	if value == "" {
		return def, nil
	}
	return strconv.ParseUint(value, 10, 64)
}
