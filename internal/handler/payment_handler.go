package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/johnkennedyb/apparcus/internal/logic"
	"github.com/johnkennedyb/apparcus/internal/model"
)

// PaymentHandler 支付处理器
type PaymentHandler struct {
	paymentLogic   *logic.PaymentLogic
	reconcileLogic *logic.ReconcileLogic
}

// NewPaymentHandler 创建支付处理器
func NewPaymentHandler(paymentLogic *logic.PaymentLogic, reconcileLogic *logic.ReconcileLogic) *PaymentHandler {
	return &PaymentHandler{
		paymentLogic:   paymentLogic,
		reconcileLogic: reconcileLogic,
	}
}

// InitializePayment 发起捐赠
func (h *PaymentHandler) InitializePayment(c *gin.Context) {
	var req InitializePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数: "+err.Error())
		return
	}

	result, err := h.paymentLogic.InitializePayment(c.Request.Context(), logic.InitializePaymentRequest{
		SupportRequestId: req.SupportRequestId,
		DonorName:        req.DonorName,
		DonorEmail:       req.DonorEmail,
		Amount:           req.Amount,
		CustomData:       req.CustomData,
	})
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "支付初始化成功", result)
}

// VerifyPayment 客户端轮询核实支付结果。
// 重放已完成的 reference 返回一致的成功响应，绝不会重复入账。
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	reference := c.Param("reference")

	outcome, err := h.paymentLogic.VerifyPayment(c.Request.Context(), reference)
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "支付核实成功", outcome)
}

// GetPayment 按 reference 查询支付
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	reference := c.Param("reference")

	payment, err := h.paymentLogic.GetByReference(c.Request.Context(), reference)
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取支付成功", ToPaymentResponse(payment))
}

// UpdatePaymentStatus 人工更新支付状态。
// completed 必须经网关核实后走对账引擎，绝不直接入账；
// failed/cancelled 走条件状态翻转，无入账副作用。
func (h *PaymentHandler) UpdatePaymentStatus(c *gin.Context) {
	reference := c.Param("reference")

	var req UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数: "+err.Error())
		return
	}

	var outcome *logic.ReconcileOutcome
	var err error
	switch model.PaymentStatus(req.Status) {
	case model.PaymentStatusCompleted:
		outcome, err = h.paymentLogic.VerifyPayment(c.Request.Context(), reference)
	case model.PaymentStatusFailed:
		outcome, err = h.reconcileLogic.MarkFailed(c.Request.Context(), reference)
	case model.PaymentStatusCancelled:
		outcome, err = h.reconcileLogic.Cancel(c.Request.Context(), reference)
	}
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "支付状态更新成功", outcome)
}
