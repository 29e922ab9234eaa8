package logic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/johnkennedyb/apparcus/internal/gateway"
	"github.com/johnkennedyb/apparcus/internal/logger"
	"github.com/johnkennedyb/apparcus/internal/model"
	"gorm.io/gorm"
)

// PaymentGateway 支付网关边界。入口只通过它与第三方网关交互，
// 网关失败必须以可重试错误上浮，不允许当作支付失败的定论。
type PaymentGateway interface {
	Initialize(ctx context.Context, req gateway.InitializeRequest) (*gateway.InitializeResult, error)
	Verify(ctx context.Context, reference string) (*gateway.VerifyReport, error)
}

// PaymentLogic 支付业务逻辑
type PaymentLogic struct {
	db        *gorm.DB
	gateway   PaymentGateway
	reconcile *ReconcileLogic
	currency  string
}

// NewPaymentLogic 创建支付业务逻辑
func NewPaymentLogic(db *gorm.DB, gw PaymentGateway, reconcile *ReconcileLogic, currency string) *PaymentLogic {
	if currency == "" {
		currency = "NGN"
	}
	return &PaymentLogic{db: db, gateway: gw, reconcile: reconcile, currency: currency}
}

// InitializePaymentRequest 发起捐赠请求
type InitializePaymentRequest struct {
	SupportRequestId int64
	DonorName        string
	DonorEmail       string
	Amount           int64 // kobo
	CustomData       map[string]interface{}
}

// InitializePaymentResult 发起捐赠结果
type InitializePaymentResult struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
}

// InitializePayment 发起一笔捐赠：校验支持请求、生成唯一 reference、
// 调用网关创建待支付交易并落库 pending 支付记录
func (l *PaymentLogic) InitializePayment(ctx context.Context, req InitializePaymentRequest) (*InitializePaymentResult, error) {
	if req.Amount <= 0 {
		return nil, errors.New("捐赠金额必须大于0")
	}
	if req.DonorEmail == "" {
		return nil, errors.New("捐赠人邮箱不能为空")
	}

	var supportRequest model.SupportRequestModel
	if err := l.db.WithContext(ctx).First(&supportRequest, req.SupportRequestId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupportRequestNotFound
		}
		return nil, storageError(err)
	}
	if supportRequest.Status != model.SupportRequestStatusActive {
		return nil, errors.New("支持请求不在进行中，无法接受捐赠")
	}

	reference := newPaymentReference()

	customData := ""
	if len(req.CustomData) > 0 {
		raw, err := json.Marshal(req.CustomData)
		if err != nil {
			return nil, fmt.Errorf("无效的自定义属性: %w", err)
		}
		customData = string(raw)
	}

	result, err := l.gateway.Initialize(ctx, gateway.InitializeRequest{
		Email:     req.DonorEmail,
		Amount:    req.Amount,
		Currency:  l.currency,
		Reference: reference,
		Metadata: map[string]interface{}{
			"support_request_id": req.SupportRequestId,
			"donor_name":         req.DonorName,
		},
	})
	if err != nil {
		return nil, err
	}

	payment := model.PaymentModel{
		SupportRequestId: req.SupportRequestId,
		DonorName:        req.DonorName,
		DonorEmail:       req.DonorEmail,
		Amount:           req.Amount,
		Currency:         l.currency,
		Reference:        reference,
		Status:           model.PaymentStatusPending,
		CustomData:       customData,
	}
	if err := l.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, storageError(err)
	}

	logger.Info("Payment initialized: reference=%s support_request=%d amount=%d", reference, req.SupportRequestId, req.Amount)
	return &InitializePaymentResult{
		Reference:        reference,
		AuthorizationURL: result.AuthorizationURL,
		AccessCode:       result.AccessCode,
	}, nil
}

// VerifyPayment 客户端轮询入口：向网关核实后交给对账引擎。
// 网关不可用属于可重试错误，原样上浮，不改变支付状态。
func (l *PaymentLogic) VerifyPayment(ctx context.Context, reference string) (*ReconcileOutcome, error) {
	report, err := l.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}
	return l.reconcile.Reconcile(ctx, reference, report)
}

// GetByReference 按 reference 查询支付
func (l *PaymentLogic) GetByReference(ctx context.Context, reference string) (*model.PaymentModel, error) {
	var payment model.PaymentModel
	if err := l.db.WithContext(ctx).Where("reference = ?", reference).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, storageError(err)
	}
	return &payment, nil
}

// GetSupportRequestPayments 获取支持请求的支付记录
func (l *PaymentLogic) GetSupportRequestPayments(ctx context.Context, supportRequestId int64, page, pageSize int) ([]model.PaymentModel, int64, error) {
	var payments []model.PaymentModel
	var total int64

	if err := l.db.WithContext(ctx).Model(&model.PaymentModel{}).
		Where("support_request_id = ?", supportRequestId).Count(&total).Error; err != nil {
		return nil, 0, storageError(err)
	}

	offset := (page - 1) * pageSize
	if err := l.db.WithContext(ctx).
		Where("support_request_id = ?", supportRequestId).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		return nil, 0, storageError(err)
	}

	return payments, total, nil
}

// ListPendingOlderThan 获取创建超过 minAge 的待确认支付（离线同步任务使用）
func (l *PaymentLogic) ListPendingOlderThan(ctx context.Context, minAge time.Duration, limit int) ([]model.PaymentModel, error) {
	var payments []model.PaymentModel
	cutoff := time.Now().Add(-minAge)
	if err := l.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.PaymentStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&payments).Error; err != nil {
		return nil, storageError(err)
	}
	return payments, nil
}

// newPaymentReference 生成全局唯一支付 reference
func newPaymentReference() string {
	return fmt.Sprintf("APPARCUS_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
