package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/johnkennedyb/apparcus/internal/logic"
)

// AuditHandler 漂移审计管理接口，面向运维而非终端用户
type AuditHandler struct {
	auditLogic *logic.AuditLogic
}

// NewAuditHandler 创建审计处理器
func NewAuditHandler(auditLogic *logic.AuditLogic) *AuditHandler {
	return &AuditHandler{auditLogic: auditLogic}
}

// parseScope 解析审计范围，默认全量
func parseScope(req *AuditRequest) logic.AuditScope {
	scope := logic.FullScope()
	if req.SupportRequests != nil {
		scope.SupportRequests = *req.SupportRequests
	}
	if req.Projects != nil {
		scope.Projects = *req.Projects
	}
	if req.Wallets != nil {
		scope.Wallets = *req.Wallets
	}
	if req.Payments != nil {
		scope.Payments = *req.Payments
	}
	return scope
}

// Audit 执行漂移审计
func (h *AuditHandler) Audit(c *gin.Context) {
	var req AuditRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数: "+err.Error())
		return
	}

	report, err := h.auditLogic.Audit(c.Request.Context(), parseScope(&req))
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "审计完成", report)
}

// Repair 执行审计并修复漂移。
// 总是基于新鲜的审计报告修复，避免使用过期的外部报告覆盖并发更新。
func (h *AuditHandler) Repair(c *gin.Context) {
	var req AuditRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数: "+err.Error())
		return
	}

	report, err := h.auditLogic.Audit(c.Request.Context(), parseScope(&req))
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	summary, err := h.auditLogic.Repair(c.Request.Context(), report)
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "修复完成", gin.H{
		"report":  report,
		"summary": summary,
	})
}
