package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/johnkennedyb/apparcus/internal/gateway"
	"github.com/johnkennedyb/apparcus/internal/logger"
	"github.com/johnkennedyb/apparcus/internal/logic"
)

// WebhookHandler 支付网关 webhook 处理器。
// 先做签名校验，通过后把成功/失败信号交给对账引擎，
// 自身不做任何账本写入。
type WebhookHandler struct {
	gateway        *gateway.Client
	reconcileLogic *logic.ReconcileLogic
}

// NewWebhookHandler 创建 webhook 处理器
func NewWebhookHandler(gw *gateway.Client, reconcileLogic *logic.ReconcileLogic) *WebhookHandler {
	return &WebhookHandler{
		gateway:        gw,
		reconcileLogic: reconcileLogic,
	}
}

// webhookEvent Paystack webhook 事件
type webhookEvent struct {
	Event string               `json:"event"`
	Data  gateway.VerifyReport `json:"data"`
}

// HandlePaystack 处理 Paystack webhook
func (h *WebhookHandler) HandlePaystack(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无法读取请求体")
		return
	}

	signature := c.GetHeader("x-paystack-signature")
	if !h.gateway.ValidateSignature(body, signature) {
		logger.Error("Invalid webhook signature")
		ErrorResponse(c, http.StatusBadRequest, "签名校验失败")
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的事件内容")
		return
	}

	logger.Info("Paystack webhook received: %s reference=%s", event.Event, event.Data.Reference)

	switch event.Event {
	case "charge.success":
		h.handleChargeOutcome(c, &event)
	case "charge.failed":
		h.handleChargeOutcome(c, &event)
	default:
		logger.Info("Unhandled webhook event: %s", event.Event)
		SuccessResponse(c, http.StatusOK, "事件已忽略", nil)
	}
}

// handleChargeOutcome 把支付结局信号交给对账引擎。
// 重放返回 200（网关不再重试），瞬时错误返回 5xx 让网关重试。
func (h *WebhookHandler) handleChargeOutcome(c *gin.Context, event *webhookEvent) {
	outcome, err := h.reconcileLogic.Reconcile(c.Request.Context(), event.Data.Reference, &event.Data)
	if err != nil {
		var verr *logic.VerificationError
		switch {
		case errors.Is(err, logic.ErrPaymentNotFound):
			// 不认识的 reference 不让网关无限重试
			logger.Warn("Webhook for unknown payment reference: %s", event.Data.Reference)
			SuccessResponse(c, http.StatusOK, "未知的支付记录", nil)
		case errors.As(err, &verr):
			// 核验失败已把支付置为 failed，属于确定结局
			SuccessResponse(c, http.StatusOK, "支付已标记为失败", outcome)
		default:
			HandleLogicError(c, err)
		}
		return
	}

	SuccessResponse(c, http.StatusOK, "事件处理成功", outcome)
}
