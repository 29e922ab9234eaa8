package logic

import (
	"errors"
	"fmt"
)

// 跨 logic 层共享的哨兵错误
var (
	// ErrPaymentNotFound 支付记录不存在
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrSupportRequestNotFound 支持请求不存在
	ErrSupportRequestNotFound = errors.New("support request not found")

	// ErrProjectNotFound 项目不存在
	ErrProjectNotFound = errors.New("project not found")

	// ErrWalletNotFound 钱包不存在
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrTransactionNotFound 账目不存在
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrConflict 终态与新报告矛盾（例如已完成的支付被报告为失败）。
	// 这类冲突只记录并上报，绝不自动覆盖，需人工介入。
	ErrConflict = errors.New("terminal status conflicts with reported outcome")

	// ErrStorageFailure 存储层瞬时错误，调用方可携带同一 reference 安全重试
	ErrStorageFailure = errors.New("storage failure")

	// ErrInsufficientBalance 钱包余额不足
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// VerificationReason 核验失败原因
type VerificationReason string

const (
	ReasonReferenceMismatch VerificationReason = "reference_mismatch"
	ReasonCurrencyMismatch  VerificationReason = "currency_mismatch"
	ReasonAmountMismatch    VerificationReason = "amount_mismatch"
	ReasonNotSuccessful     VerificationReason = "not_successful"
)

// VerificationError 网关报告未通过核验。对该支付而言是终态错误，
// 支付会被置为 failed，但与 ErrConflict 不同，不需要人工介入。
type VerificationError struct {
	Reason  VerificationReason
	Message string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("payment verification failed (%s): %s", e.Reason, e.Message)
}

// storageError 包装 gorm 错误为可重试的存储错误
func storageError(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageFailure, err)
}
