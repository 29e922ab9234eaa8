package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/johnkennedyb/apparcus/internal/logic"
	"github.com/johnkennedyb/apparcus/internal/model"
)

// SupportRequestHandler 支持请求处理器
type SupportRequestHandler struct {
	supportRequestLogic *logic.SupportRequestLogic
	paymentLogic        *logic.PaymentLogic
}

// NewSupportRequestHandler 创建支持请求处理器
func NewSupportRequestHandler(supportRequestLogic *logic.SupportRequestLogic, paymentLogic *logic.PaymentLogic) *SupportRequestHandler {
	return &SupportRequestHandler{
		supportRequestLogic: supportRequestLogic,
		paymentLogic:        paymentLogic,
	}
}

// CreateSupportRequest 创建支持请求
func (h *SupportRequestHandler) CreateSupportRequest(c *gin.Context) {
	userId, ok := RequireUser(c)
	if !ok {
		return
	}

	var req CreateSupportRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数: "+err.Error())
		return
	}

	request := model.SupportRequestModel{
		ProjectId:    req.ProjectId,
		RequesterId:  userId,
		Title:        req.Title,
		Description:  req.Description,
		AmountNeeded: req.AmountNeeded,
		MediaURL:     req.MediaURL,
	}
	if err := h.supportRequestLogic.CreateSupportRequest(c.Request.Context(), &request); err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "创建支持请求成功", ToSupportRequestResponse(&request))
}

// GetSupportRequests 获取支持请求列表
func (h *SupportRequestHandler) GetSupportRequests(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	status := c.Query("status")

	requests, total, err := h.supportRequestLogic.GetSupportRequests(c.Request.Context(), status, page, pageSize)
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取支持请求列表成功", GetSupportRequestsResponse{
		SupportRequests: ToSupportRequestResponseList(requests),
		Pagination:      NewPagination(page, pageSize, total),
	})
}

// GetSupportRequest 获取支持请求详情
func (h *SupportRequestHandler) GetSupportRequest(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的支持请求ID")
		return
	}

	request, err := h.supportRequestLogic.GetSupportRequest(c.Request.Context(), id)
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取支持请求成功", ToSupportRequestResponse(request))
}

// GetSupportRequestPayments 获取支持请求的支付记录
func (h *SupportRequestHandler) GetSupportRequestPayments(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的支持请求ID")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	payments, total, err := h.paymentLogic.GetSupportRequestPayments(c.Request.Context(), id, page, pageSize)
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取支付记录成功", GetSupportRequestPaymentsResponse{
		Payments:   ToPaymentResponseList(payments),
		Pagination: NewPagination(page, pageSize, total),
	})
}

// CancelSupportRequest 取消支持请求
func (h *SupportRequestHandler) CancelSupportRequest(c *gin.Context) {
	userId, ok := RequireUser(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的支持请求ID")
		return
	}

	if err := h.supportRequestLogic.CancelSupportRequest(c.Request.Context(), id, userId); err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "取消支持请求成功", nil)
}
