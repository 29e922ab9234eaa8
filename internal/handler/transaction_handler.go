package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/johnkennedyb/apparcus/internal/logic"
)

// TransactionHandler 账目处理器
type TransactionHandler struct {
	transactionLogic *logic.TransactionLogic
}

// NewTransactionHandler 创建账目处理器
func NewTransactionHandler(transactionLogic *logic.TransactionLogic) *TransactionHandler {
	return &TransactionHandler{transactionLogic: transactionLogic}
}

// GetTransactions 获取当前用户账目列表
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	userId, ok := RequireUser(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	txType := c.Query("type")
	status := c.Query("status")

	transactions, total, err := h.transactionLogic.GetUserTransactions(c.Request.Context(), userId, txType, status, page, pageSize)
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取账目列表成功", GetTransactionsResponse{
		Transactions: ToTransactionResponseList(transactions),
		Pagination:   NewPagination(page, pageSize, total),
	})
}

// GetTransaction 按 id 获取账目
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userId, ok := RequireUser(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的账目ID")
		return
	}

	transaction, err := h.transactionLogic.GetTransaction(c.Request.Context(), id)
	if err != nil {
		HandleLogicError(c, err)
		return
	}

	if transaction.UserId != userId && transaction.RecipientId != userId {
		ErrorResponse(c, http.StatusForbidden, "无权查看该账目")
		return
	}

	SuccessResponse(c, http.StatusOK, "获取账目成功", ToTransactionResponse(transaction))
}
