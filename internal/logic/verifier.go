package logic

import (
	"fmt"

	"github.com/johnkennedyb/apparcus/internal/gateway"
	"github.com/johnkennedyb/apparcus/internal/model"
)

// VerifiedPayment 通过核验的支付，携带唯一可信的入账金额
type VerifiedPayment struct {
	Reference string
	Amount    int64
	Currency  string
}

// VerifyPaymentReport 用存储的支付记录核验网关报告。
// 依次检查 reference、币种、金额（精确相等，无容差）、成功标志。
// 纯判定函数，不产生任何副作用。
func VerifyPaymentReport(payment *model.PaymentModel, report *gateway.VerifyReport) (*VerifiedPayment, error) {
	if report == nil {
		return nil, &VerificationError{
			Reason:  ReasonNotSuccessful,
			Message: "gateway report is missing",
		}
	}

	if report.Reference != payment.Reference {
		return nil, &VerificationError{
			Reason:  ReasonReferenceMismatch,
			Message: fmt.Sprintf("expected %s, got %s", payment.Reference, report.Reference),
		}
	}

	if report.Currency != payment.Currency {
		return nil, &VerificationError{
			Reason:  ReasonCurrencyMismatch,
			Message: fmt.Sprintf("expected %s, got %s", payment.Currency, report.Currency),
		}
	}

	if report.Amount != payment.Amount {
		return nil, &VerificationError{
			Reason:  ReasonAmountMismatch,
			Message: fmt.Sprintf("expected %d, got %d", payment.Amount, report.Amount),
		}
	}

	// 成功标志必须显式为 success，缺失或其他任何取值都按失败处理
	if !report.Succeeded() {
		return nil, &VerificationError{
			Reason:  ReasonNotSuccessful,
			Message: fmt.Sprintf("gateway reported status %q", report.Status),
		}
	}

	return &VerifiedPayment{
		Reference: payment.Reference,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
	}, nil
}
