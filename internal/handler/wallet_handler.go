package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/johnkennedyb/apparcus/internal/logic"
)

// WalletHandler 钱包处理器
type WalletHandler struct {
	walletLogic *logic.WalletLogic
}

// NewWalletHandler 创建钱包处理器
func NewWalletHandler(walletLogic *logic.WalletLogic) *WalletHandler {
	return &WalletHandler{walletLogic: walletLogic}
}

// GetMainWallet 获取用户主钱包（不存在时惰性创建）
func (h *WalletHandler) GetMainWallet(c *gin.Context) {
	userId, ok := RequireUser(c)
	if !ok {
		return
	}

	wallet, err := h.walletLogic.GetMainWallet(c.Request.Context(), userId)
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取钱包成功", ToWalletResponse(wallet))
}

// GetUserWallets 获取用户所有钱包
func (h *WalletHandler) GetUserWallets(c *gin.Context) {
	userId, ok := RequireUser(c)
	if !ok {
		return
	}

	wallets, err := h.walletLogic.GetUserWallets(c.Request.Context(), userId)
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取钱包列表成功", ToWalletResponseList(wallets))
}

// GetOrCreateWallet 获取或创建钱包
func (h *WalletHandler) GetOrCreateWallet(c *gin.Context) {
	userId, ok := RequireUser(c)
	if !ok {
		return
	}

	var req GetOrCreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数: "+err.Error())
		return
	}

	wallet, err := h.walletLogic.GetOrCreateWallet(c.Request.Context(), userId, req.ProjectId, req.Currency)
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取钱包成功", ToWalletResponse(wallet))
}

// GetWalletBalance 查询钱包余额
func (h *WalletHandler) GetWalletBalance(c *gin.Context) {
	userId, ok := RequireUser(c)
	if !ok {
		return
	}

	walletId, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的钱包ID")
		return
	}

	wallet, err := h.walletLogic.GetWallet(c.Request.Context(), walletId)
	if err != nil {
		HandleLogicError(c, err)
		return
	}
	if wallet.UserId != userId {
		ErrorResponse(c, http.StatusForbidden, "无权查看该钱包")
		return
	}

	SuccessResponse(c, http.StatusOK, "获取余额成功", gin.H{
		"balance":  wallet.Balance,
		"currency": wallet.Currency,
	})
}

// Withdraw 从主钱包提现
func (h *WalletHandler) Withdraw(c *gin.Context) {
	userId, ok := RequireUser(c)
	if !ok {
		return
	}

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数: "+err.Error())
		return
	}

	record, err := h.walletLogic.Withdraw(c.Request.Context(), logic.WithdrawRequest{
		UserId:        userId,
		Amount:        req.Amount,
		BankCode:      req.BankCode,
		AccountNumber: req.AccountNumber,
		AccountName:   req.AccountName,
	})
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "提现成功", ToTransactionResponse(record))
}

// Transfer 主钱包之间转账
func (h *WalletHandler) Transfer(c *gin.Context) {
	userId, ok := RequireUser(c)
	if !ok {
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数: "+err.Error())
		return
	}

	record, err := h.walletLogic.Transfer(c.Request.Context(), userId, req.RecipientId, req.Amount, req.Description)
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "转账成功", ToTransactionResponse(record))
}
