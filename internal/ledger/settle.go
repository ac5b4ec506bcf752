package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var (
	ErrInsufficientFunds      = errors.New("insufficient balance")
	ErrCurrencyMismatch       = errors.New("currency mismatch")
	ErrUserNotFound           = errors.New("user not found")
	ErrDuplicateTransactionID = errors.New("transaction id already used")
)

// InsufficientFundsError carries the amount the settlement needed and
// the balance read under the row lock. It unwraps to
// ErrInsufficientFunds, so errors.Is checks against the sentinel keep
// working.
type InsufficientFundsError struct {
	RequiredCents  int64
	AvailableCents int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: required %d, available %d", e.RequiredCents, e.AvailableCents)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

type lockedUser struct {
	ID           int    `db:"id"`
	BalanceCents int64  `db:"balance_cents"`
	Currency     string `db:"currency"`
	ClubID       *int   `db:"club_id"`
}

const paymentColumns = `id, user_id, club_id, event_id, type, amount_cents, currency, status, method, description, is_cross_club, transaction_id, created_at, updated_at`

const entryColumns = `id, user_id, payment_id, club_id, event_id, amount_cents, balance_before_cents, balance_after_cents, currency, created_at`

// SettleInTx performs an atomic balance settlement inside the caller's
// transaction: it locks the payer's row, re-reads the balance under that
// lock, inserts a completed payment, deducts the balance and appends the
// ledger row. The caller owns commit and rollback, so a registration or
// join-request write in the same transaction commits together with the
// settlement or not at all.
func SettleInTx(ctx context.Context, tx *sqlx.Tx, p SettleParams) (*Settlement, error) {
	if p.TransactionID != nil {
		replay, err := findByTransactionID(ctx, tx, *p.TransactionID)
		if err != nil {
			return nil, err
		}
		if replay != nil {
			return replay, nil
		}
	}

	var u lockedUser
	err := tx.QueryRowxContext(ctx,
		`SELECT id, balance_cents, currency, club_id
		 FROM users
		 WHERE id = $1
		 FOR UPDATE`,
		p.UserID,
	).StructScan(&u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lock user row: %w", err)
	}

	if u.Currency != p.Currency {
		return nil, ErrCurrencyMismatch
	}
	if u.BalanceCents < p.AmountCents {
		return nil, &InsufficientFundsError{RequiredCents: p.AmountCents, AvailableCents: u.BalanceCents}
	}

	// balance_before comes from the value read under the lock above,
	// never from a caller-supplied snapshot.
	balanceBefore := u.BalanceCents
	balanceAfter := balanceBefore - p.AmountCents

	crossClub := u.ClubID == nil || *u.ClubID != p.ClubID

	var payment Payment
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO payments (user_id, club_id, event_id, type, amount_cents, currency, status, method, description, is_cross_club, transaction_id)
		 VALUES ($1, $2, $3, $4, $5, $6, 'completed', 'balance', $7, $8, $9)
		 RETURNING `+paymentColumns,
		p.UserID, p.ClubID, p.EventID, p.Type, p.AmountCents, p.Currency, p.Description, crossClub, p.TransactionID,
	).StructScan(&payment)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users
		 SET balance_cents = $1, updated_at = NOW()
		 WHERE id = $2`,
		balanceAfter, u.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("deduct balance: %w", err)
	}

	var entry BalanceTransaction
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO balance_transactions (user_id, payment_id, club_id, event_id, amount_cents, balance_before_cents, balance_after_cents, currency)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+entryColumns,
		p.UserID, payment.ID, p.ClubID, p.EventID, -p.AmountCents, balanceBefore, balanceAfter, p.Currency,
	).StructScan(&entry)
	if err != nil {
		return nil, fmt.Errorf("insert balance transaction: %w", err)
	}

	return &Settlement{Payment: payment, Entry: entry}, nil
}

// findByTransactionID resolves an idempotent retry. A completed balance
// payment with the same key is returned as a replay; any other payment
// holding the key is a conflict.
func findByTransactionID(ctx context.Context, tx *sqlx.Tx, transactionID string) (*Settlement, error) {
	var payment Payment
	err := tx.QueryRowxContext(ctx,
		`SELECT `+paymentColumns+`
		 FROM payments
		 WHERE transaction_id = $1`,
		transactionID,
	).StructScan(&payment)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find payment by transaction id: %w", err)
	}

	if payment.Method != MethodBalance || payment.Status != StatusCompleted {
		return nil, ErrDuplicateTransactionID
	}

	var entry BalanceTransaction
	err = tx.QueryRowxContext(ctx,
		`SELECT `+entryColumns+`
		 FROM balance_transactions
		 WHERE payment_id = $1`,
		payment.ID,
	).StructScan(&entry)
	if err != nil {
		return nil, fmt.Errorf("find ledger entry for replayed payment: %w", err)
	}

	return &Settlement{Payment: payment, Entry: entry, Replayed: true}, nil
}

// CreditInTx adds funds to a user's balance under the row lock and
// appends the matching ledger row. Credits carry no payment linkage.
func CreditInTx(ctx context.Context, tx *sqlx.Tx, userID int, amountCents int64) (*BalanceTransaction, error) {
	var u lockedUser
	err := tx.QueryRowxContext(ctx,
		`SELECT id, balance_cents, currency, club_id
		 FROM users
		 WHERE id = $1
		 FOR UPDATE`,
		userID,
	).StructScan(&u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lock user row: %w", err)
	}

	balanceAfter := u.BalanceCents + amountCents

	_, err = tx.ExecContext(ctx,
		`UPDATE users
		 SET balance_cents = $1, updated_at = NOW()
		 WHERE id = $2`,
		balanceAfter, u.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("credit balance: %w", err)
	}

	var entry BalanceTransaction
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO balance_transactions (user_id, payment_id, club_id, event_id, amount_cents, balance_before_cents, balance_after_cents, currency)
		 VALUES ($1, NULL, NULL, NULL, $2, $3, $4, $5)
		 RETURNING `+entryColumns,
		userID, amountCents, u.BalanceCents, balanceAfter, u.Currency,
	).StructScan(&entry)
	if err != nil {
		return nil, fmt.Errorf("insert balance transaction: %w", err)
	}

	return &entry, nil
}
