package logic

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/johnkennedyb/apparcus/internal/model"
)

func TestWithdraw(t *testing.T) {
	db := newTestDB(t)
	l := NewWalletLogic(db, "NGN")

	wallet, err := l.GetMainWallet(context.Background(), 7)
	if err != nil {
		t.Fatalf("failed to create wallet: %v", err)
	}
	setBalance(t, db, wallet.Id, 10000)

	record, err := l.Withdraw(context.Background(), WithdrawRequest{
		UserId:        7,
		Amount:        4000,
		BankCode:      "058",
		AccountNumber: "0123456789",
		AccountName:   "Ada",
	})
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if record.Type != model.TransactionTypeDebit {
		t.Fatalf("expected debit record, got %s", record.Type)
	}
	if record.Amount != 4000 {
		t.Fatalf("expected amount 4000, got %d", record.Amount)
	}

	if got := walletBalance(t, db, 7, 0); got != 6000 {
		t.Fatalf("expected balance 6000, got %d", got)
	}
}

func TestWithdrawInsufficientBalance(t *testing.T) {
	db := newTestDB(t)
	l := NewWalletLogic(db, "NGN")

	wallet, err := l.GetMainWallet(context.Background(), 7)
	if err != nil {
		t.Fatalf("failed to create wallet: %v", err)
	}
	setBalance(t, db, wallet.Id, 100)

	_, err = l.Withdraw(context.Background(), WithdrawRequest{UserId: 7, Amount: 101, AccountName: "Ada"})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	if got := walletBalance(t, db, 7, 0); got != 100 {
		t.Fatalf("rejected withdrawal must not touch balance, got %d", got)
	}
	var count int64
	if err := db.Model(&model.TransactionModel{}).Where("user_id = ?", 7).Count(&count).Error; err != nil {
		t.Fatalf("failed to count transactions: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected withdrawal must not create a record, got %d", count)
	}
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	db := newTestDB(t)
	l := NewWalletLogic(db, "NGN")

	wallet, err := l.GetMainWallet(context.Background(), 7)
	if err != nil {
		t.Fatalf("failed to create wallet: %v", err)
	}
	setBalance(t, db, wallet.Id, 100)

	const callers = 6
	results := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			for attempt := 0; attempt < 10; attempt++ {
				_, err = l.Withdraw(context.Background(), WithdrawRequest{UserId: 7, Amount: 30, AccountName: "Ada"})
				if !errors.Is(err, ErrStorageFailure) {
					break
				}
			}
			results[i] = err
		}()
	}
	wg.Wait()

	succeeded := 0
	for i, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInsufficientBalance):
		default:
			t.Fatalf("caller %d got unexpected error: %v", i, err)
		}
	}

	// 余额100最多承受3笔30的借记
	if succeeded > 3 {
		t.Fatalf("too many withdrawals succeeded: %d", succeeded)
	}
	want := int64(100 - succeeded*30)
	if got := walletBalance(t, db, 7, 0); got != want {
		t.Fatalf("expected balance %d, got %d", want, got)
	}
	if got := walletBalance(t, db, 7, 0); got < 0 {
		t.Fatalf("balance must never go negative, got %d", got)
	}
}

func TestTransfer(t *testing.T) {
	db := newTestDB(t)
	l := NewWalletLogic(db, "NGN")

	fromWallet, err := l.GetMainWallet(context.Background(), 7)
	if err != nil {
		t.Fatalf("failed to create sender wallet: %v", err)
	}
	setBalance(t, db, fromWallet.Id, 5000)

	record, err := l.Transfer(context.Background(), 7, 8, 2000, "rent split")
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if record.Type != model.TransactionTypeTransfer {
		t.Fatalf("expected transfer record, got %s", record.Type)
	}
	if record.UserId != 7 || record.RecipientId != 8 {
		t.Fatalf("unexpected parties: %+v", record)
	}

	if got := walletBalance(t, db, 7, 0); got != 3000 {
		t.Fatalf("expected sender balance 3000, got %d", got)
	}
	if got := walletBalance(t, db, 8, 0); got != 2000 {
		t.Fatalf("expected recipient balance 2000, got %d", got)
	}
}

func TestTransferRejectsSelfAndOverdraft(t *testing.T) {
	db := newTestDB(t)
	l := NewWalletLogic(db, "NGN")

	if _, err := l.Transfer(context.Background(), 7, 7, 100, ""); err == nil {
		t.Fatal("self transfer must be rejected")
	}

	if _, err := l.Transfer(context.Background(), 7, 8, 100, ""); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}
