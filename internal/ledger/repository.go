package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrPaymentImmutable = errors.New("payment status can no longer change")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetBalance(ctx context.Context, userID int) (*Balance, error) {
	b := &Balance{}
	err := r.db.GetContext(ctx, b,
		`SELECT id, balance_cents, currency FROM users WHERE id = $1`,
		userID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *repository) CreatePending(ctx context.Context, p CreateParams) (*Payment, error) {
	var payment Payment
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO payments (user_id, club_id, event_id, type, amount_cents, currency, status, method, description, is_cross_club, transaction_id)
		 SELECT $1, $2, $3, $4, $5, $6, 'pending', 'external', $7, (u.club_id IS DISTINCT FROM $2), $8
		 FROM users u WHERE u.id = $1
		 RETURNING `+paymentColumns,
		p.UserID, p.ClubID, p.EventID, p.Type, p.AmountCents, p.Currency, p.Description, p.TransactionID,
	).StructScan(&payment)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// UpdateStatus moves an externally-settled payment out of pending. The
// guard lives in the WHERE clause so a concurrent double callback cannot
// transition the same payment twice, and balance payments stay immutable.
func (r *repository) UpdateStatus(ctx context.Context, paymentID int, status PaymentStatus, externalRef *string) (*Payment, error) {
	var payment Payment
	err := r.db.QueryRowxContext(ctx,
		`UPDATE payments
		 SET status = $2, transaction_id = COALESCE($3, transaction_id), updated_at = NOW()
		 WHERE id = $1 AND status = 'pending' AND method <> 'balance'
		 RETURNING `+paymentColumns,
		paymentID, status, externalRef,
	).StructScan(&payment)
	if err == nil {
		return &payment, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	exists, err := r.paymentExists(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrPaymentImmutable
	}
	return nil, ErrPaymentNotFound
}

func (r *repository) paymentExists(ctx context.Context, paymentID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM payments WHERE id = $1)`,
		paymentID,
	)
	return exists, err
}

func (r *repository) SettleWithBalance(ctx context.Context, p SettleParams) (*Settlement, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin settlement: %w", err)
	}
	defer tx.Rollback()

	settlement, err := SettleInTx(ctx, tx, p)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit settlement: %w", err)
	}
	return settlement, nil
}

func (r *repository) TopUp(ctx context.Context, userID int, amountCents int64) (*BalanceTransaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin top up: %w", err)
	}
	defer tx.Rollback()

	entry, err := CreditInTx(ctx, tx, userID, amountCents)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit top up: %w", err)
	}
	return entry, nil
}

func (r *repository) GetPaymentByID(ctx context.Context, id int) (*Payment, error) {
	var payment Payment
	err := r.db.GetContext(ctx, &payment,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`,
		id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListUserPayments(ctx context.Context, userID, limit, offset int) ([]Payment, error) {
	if limit <= 0 {
		limit = 50
	}

	payments := []Payment{}
	err := r.db.SelectContext(ctx, &payments,
		`SELECT `+paymentColumns+`
		 FROM payments
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repository) ListUserTransactions(ctx context.Context, userID, limit, offset int) ([]BalanceTransaction, error) {
	if limit <= 0 {
		limit = 50
	}

	txs := []BalanceTransaction{}
	err := r.db.SelectContext(ctx, &txs,
		`SELECT `+entryColumns+`
		 FROM balance_transactions
		 WHERE user_id = $1
		 ORDER BY id DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return txs, nil
}
