package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches the API routes to the /v1 group.
func RegisterRoutes(
	v1 *gin.RouterGroup,
	securityHandler *SecurityHandler,
	escrowHandler *EscrowHandler,
	auditHandler *AuditHandler,
) {
	v1.POST("/protect", securityHandler.ProtectHandler)
	v1.POST("/reveal", securityHandler.RevealHandler)

	escrow := v1.Group("/escrow")
	{
		escrow.POST("/requests", escrowHandler.InitiateHandler)
		escrow.GET("/requests", escrowHandler.ListHandler)
		escrow.GET("/requests/:id", escrowHandler.GetHandler)
		escrow.POST("/requests/:id/approve", escrowHandler.ApproveHandler)
		escrow.POST("/requests/:id/deny", escrowHandler.DenyHandler)
		escrow.POST("/requests/:id/redeem", escrowHandler.RedeemHandler)
		escrow.GET("/stats", escrowHandler.StatsHandler)
	}

	audit := v1.Group("/audit")
	{
		audit.GET("", auditHandler.QueryHandler)
		audit.GET("/report", auditHandler.ReportHandler)
		audit.GET("/verify", auditHandler.VerifyHandler)
	}
}
