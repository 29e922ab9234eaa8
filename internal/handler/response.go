package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/johnkennedyb/apparcus/internal/gateway"
	"github.com/johnkennedyb/apparcus/internal/logic"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// HandleLogicError 把 logic 层错误分类映射为 HTTP 响应。
// 冲突与可重试错误使用独立状态码，调用方不会把它们误认为普通失败。
func HandleLogicError(c *gin.Context, err error) {
	var verr *logic.VerificationError
	switch {
	case errors.Is(err, logic.ErrPaymentNotFound),
		errors.Is(err, logic.ErrSupportRequestNotFound),
		errors.Is(err, logic.ErrProjectNotFound),
		errors.Is(err, logic.ErrWalletNotFound),
		errors.Is(err, logic.ErrTransactionNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.As(err, &verr):
		ErrorResponse(c, http.StatusBadRequest, verr.Error())
	case errors.Is(err, logic.ErrConflict):
		ErrorResponse(c, http.StatusConflict, "支付状态冲突，已记录待人工处理")
	case errors.Is(err, logic.ErrInsufficientBalance):
		ErrorResponse(c, http.StatusBadRequest, "余额不足")
	case errors.Is(err, logic.ErrStorageFailure), errors.Is(err, gateway.ErrGatewayUnavailable):
		ErrorResponse(c, http.StatusServiceUnavailable, "服务暂时不可用，请稍后重试")
	default:
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
}

// CurrentUserId 从上游认证中间件注入的请求头获取当前用户。
// 认证本身是外部协作方，这里只消费其结果。
func CurrentUserId(c *gin.Context) (int64, bool) {
	raw := c.GetHeader("X-User-Id")
	if raw == "" {
		return 0, false
	}
	userId, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userId <= 0 {
		return 0, false
	}
	return userId, true
}

// RequireUser 读取当前用户，缺失时返回 401
func RequireUser(c *gin.Context) (int64, bool) {
	userId, ok := CurrentUserId(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "缺少用户身份")
	}
	return userId, ok
}
