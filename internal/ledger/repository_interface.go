package ledger

import "context"

type Repository interface {
	GetBalance(ctx context.Context, userID int) (*Balance, error)
	CreatePending(ctx context.Context, p CreateParams) (*Payment, error)
	UpdateStatus(ctx context.Context, paymentID int, status PaymentStatus, externalRef *string) (*Payment, error)
	SettleWithBalance(ctx context.Context, p SettleParams) (*Settlement, error)
	TopUp(ctx context.Context, userID int, amountCents int64) (*BalanceTransaction, error)
	GetPaymentByID(ctx context.Context, id int) (*Payment, error)
	ListUserPayments(ctx context.Context, userID, limit, offset int) ([]Payment, error)
	ListUserTransactions(ctx context.Context, userID, limit, offset int) ([]BalanceTransaction, error)
}
