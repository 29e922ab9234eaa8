package handler

import (
	"time"

	"github.com/johnkennedyb/apparcus/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// 支付相关请求/响应模型

// InitializePaymentRequest 发起捐赠请求
type InitializePaymentRequest struct {
	SupportRequestId int64                  `json:"support_request_id" binding:"required"`
	DonorName        string                 `json:"donor_name" binding:"required"`
	DonorEmail       string                 `json:"donor_email" binding:"required,email"`
	Amount           int64                  `json:"amount" binding:"required,min=1"`
	CustomData       map[string]interface{} `json:"custom_data"`
}

// UpdatePaymentStatusRequest 人工更新支付状态请求
type UpdatePaymentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=completed failed cancelled"`
}

// PaymentResponse 支付响应模型
type PaymentResponse struct {
	ID               int64     `json:"id"`
	SupportRequestId int64     `json:"supportRequestId"`
	DonorName        string    `json:"donorName"`
	DonorEmail       string    `json:"donorEmail"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	Reference        string    `json:"reference"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// GetSupportRequestPaymentsResponse 支持请求支付记录响应
type GetSupportRequestPaymentsResponse struct {
	Payments   []PaymentResponse `json:"payments"`
	Pagination Pagination        `json:"pagination"`
}

// 支持请求相关模型

// CreateSupportRequestRequest 创建支持请求
type CreateSupportRequestRequest struct {
	ProjectId    int64  `json:"project_id"`
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	AmountNeeded int64  `json:"amount_needed" binding:"required,min=1"`
	MediaURL     string `json:"media_url"`
}

// SupportRequestResponse 支持请求响应模型
type SupportRequestResponse struct {
	ID                int64     `json:"id"`
	ProjectId         int64     `json:"projectId"`
	RequesterId       int64     `json:"requesterId"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	AmountNeeded      int64     `json:"amountNeeded"`
	AmountRaised      int64     `json:"amountRaised"`
	FundingPercentage float64   `json:"fundingPercentage"`
	MediaURL          string    `json:"mediaUrl"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// GetSupportRequestsResponse 支持请求列表响应
type GetSupportRequestsResponse struct {
	SupportRequests []SupportRequestResponse `json:"supportRequests"`
	Pagination      Pagination               `json:"pagination"`
}

// 项目相关模型

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	FundingGoal int64  `json:"funding_goal" binding:"required,min=1"`
}

// ProjectResponse 项目响应模型
type ProjectResponse struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	AdminId           int64     `json:"adminId"`
	FundingGoal       int64     `json:"fundingGoal"`
	CurrentFunding    int64     `json:"currentFunding"`
	FundingPercentage float64   `json:"fundingPercentage"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// 钱包相关模型

// GetOrCreateWalletRequest 获取或创建钱包请求
type GetOrCreateWalletRequest struct {
	ProjectId int64  `json:"project_id"`
	Currency  string `json:"currency"`
}

// WithdrawRequest 提现请求
type WithdrawRequest struct {
	Amount        int64  `json:"amount" binding:"required,min=1"`
	BankCode      string `json:"bank_code" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	AccountName   string `json:"account_name" binding:"required"`
}

// TransferRequest 转账请求
type TransferRequest struct {
	RecipientId int64  `json:"recipient_id" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,min=1"`
	Description string `json:"description"`
}

// WalletResponse 钱包响应模型
type WalletResponse struct {
	ID        int64     `json:"id"`
	UserId    int64     `json:"userId"`
	ProjectId int64     `json:"projectId"`
	Currency  string    `json:"currency"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// 账目相关模型

// TransactionResponse 账目响应模型
type TransactionResponse struct {
	ID               int64     `json:"id"`
	UserId           int64     `json:"userId"`
	RecipientId      int64     `json:"recipientId"`
	ProjectId        int64     `json:"projectId"`
	Type             string    `json:"type"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	Description      string    `json:"description"`
	Reference        string    `json:"reference"`
	PaymentReference string    `json:"paymentReference,omitempty"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
}

// GetTransactionsResponse 账目列表响应
type GetTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Pagination   Pagination            `json:"pagination"`
}

// 审计相关模型

// AuditRequest 审计请求（默认全量）
type AuditRequest struct {
	SupportRequests *bool `json:"support_requests"`
	Projects        *bool `json:"projects"`
	Wallets         *bool `json:"wallets"`
	Payments        *bool `json:"payments"`
}

// 转换函数

// ToPaymentResponse 将支付数据库模型转换为响应模型
func ToPaymentResponse(payment *model.PaymentModel) PaymentResponse {
	return PaymentResponse{
		ID:               payment.Id,
		SupportRequestId: payment.SupportRequestId,
		DonorName:        payment.DonorName,
		DonorEmail:       payment.DonorEmail,
		Amount:           payment.Amount,
		Currency:         payment.Currency,
		Reference:        payment.Reference,
		Status:           string(payment.Status),
		CreatedAt:        payment.CreatedAt,
		UpdatedAt:        payment.UpdatedAt,
	}
}

// ToPaymentResponseList 将支付数据库模型列表转换为响应模型列表
func ToPaymentResponseList(payments []model.PaymentModel) []PaymentResponse {
	result := make([]PaymentResponse, len(payments))
	for i, payment := range payments {
		result[i] = ToPaymentResponse(&payment)
	}
	return result
}

// ToSupportRequestResponse 将支持请求数据库模型转换为响应模型
func ToSupportRequestResponse(request *model.SupportRequestModel) SupportRequestResponse {
	return SupportRequestResponse{
		ID:                request.Id,
		ProjectId:         request.ProjectId,
		RequesterId:       request.RequesterId,
		Title:             request.Title,
		Description:       request.Description,
		AmountNeeded:      request.AmountNeeded,
		AmountRaised:      request.AmountRaised,
		FundingPercentage: request.FundingPercentage(),
		MediaURL:          request.MediaURL,
		Status:            string(request.Status),
		CreatedAt:         request.CreatedAt,
		UpdatedAt:         request.UpdatedAt,
	}
}

// ToSupportRequestResponseList 将支持请求数据库模型列表转换为响应模型列表
func ToSupportRequestResponseList(requests []model.SupportRequestModel) []SupportRequestResponse {
	result := make([]SupportRequestResponse, len(requests))
	for i, request := range requests {
		result[i] = ToSupportRequestResponse(&request)
	}
	return result
}

// ToProjectResponse 将项目数据库模型转换为响应模型
func ToProjectResponse(project *model.ProjectModel) ProjectResponse {
	return ProjectResponse{
		ID:                project.Id,
		Name:              project.Name,
		Description:       project.Description,
		AdminId:           project.AdminId,
		FundingGoal:       project.FundingGoal,
		CurrentFunding:    project.CurrentFunding,
		FundingPercentage: project.FundingPercentage(),
		Status:            string(project.Status),
		CreatedAt:         project.CreatedAt,
		UpdatedAt:         project.UpdatedAt,
	}
}

// ToProjectResponseList 将项目数据库模型列表转换为响应模型列表
func ToProjectResponseList(projects []model.ProjectModel) []ProjectResponse {
	result := make([]ProjectResponse, len(projects))
	for i, project := range projects {
		result[i] = ToProjectResponse(&project)
	}
	return result
}

// ToWalletResponse 将钱包数据库模型转换为响应模型
func ToWalletResponse(wallet *model.WalletModel) WalletResponse {
	return WalletResponse{
		ID:        wallet.Id,
		UserId:    wallet.UserId,
		ProjectId: wallet.ProjectId,
		Currency:  wallet.Currency,
		Balance:   wallet.Balance,
		CreatedAt: wallet.CreatedAt,
		UpdatedAt: wallet.UpdatedAt,
	}
}

// ToWalletResponseList 将钱包数据库模型列表转换为响应模型列表
func ToWalletResponseList(wallets []model.WalletModel) []WalletResponse {
	result := make([]WalletResponse, len(wallets))
	for i, wallet := range wallets {
		result[i] = ToWalletResponse(&wallet)
	}
	return result
}

// ToTransactionResponse 将账目数据库模型转换为响应模型
func ToTransactionResponse(transaction *model.TransactionModel) TransactionResponse {
	response := TransactionResponse{
		ID:          transaction.Id,
		UserId:      transaction.UserId,
		RecipientId: transaction.RecipientId,
		ProjectId:   transaction.ProjectId,
		Type:        string(transaction.Type),
		Amount:      transaction.Amount,
		Currency:    transaction.Currency,
		Description: transaction.Description,
		Reference:   transaction.Reference,
		Status:      string(transaction.Status),
		CreatedAt:   transaction.CreatedAt,
	}
	if transaction.PaymentReference != nil {
		response.PaymentReference = *transaction.PaymentReference
	}
	return response
}

// ToTransactionResponseList 将账目数据库模型列表转换为响应模型列表
func ToTransactionResponseList(transactions []model.TransactionModel) []TransactionResponse {
	result := make([]TransactionResponse, len(transactions))
	for i, transaction := range transactions {
		result[i] = ToTransactionResponse(&transaction)
	}
	return result
}

// NewPagination 构造分页信息
func NewPagination(page, pageSize int, total int64) Pagination {
	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
}
