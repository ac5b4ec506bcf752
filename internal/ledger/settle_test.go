package ledger

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func setupLedgerMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	closer := func() { sqlxDB.Close() }
	return sqlxDB, mock, closer
}

func paymentRowColumns() []string {
	return []string{"id", "user_id", "club_id", "event_id", "type", "amount_cents", "currency", "status", "method", "description", "is_cross_club", "transaction_id", "created_at", "updated_at"}
}

func entryRowColumns() []string {
	return []string{"id", "user_id", "payment_id", "club_id", "event_id", "amount_cents", "balance_before_cents", "balance_after_cents", "currency", "created_at"}
}

const lockUserQuery = `SELECT id, balance_cents, currency, club_id FROM users WHERE id = $1 FOR UPDATE`

func TestSettleInTx_Success(t *testing.T) {
	db, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()
	now := time.Now()
	clubID := 3

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta(lockUserQuery)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance_cents", "currency", "club_id"}).
			AddRow(10, 5000, "USD", clubID))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payments")).
		WithArgs(10, 3, nil, "club_fee", 2000, "USD", "Joining fee", false, nil).
		WillReturnRows(sqlmock.NewRows(paymentRowColumns()).
			AddRow(1, 10, 3, nil, "club_fee", 2000, "USD", "completed", "balance", "Joining fee", false, nil, now, now))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET balance_cents = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(3000, 10).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO balance_transactions")).
		WithArgs(10, 1, 3, nil, -2000, 5000, 3000, "USD").
		WillReturnRows(sqlmock.NewRows(entryRowColumns()).
			AddRow(1, 10, 1, 3, nil, -2000, 5000, 3000, "USD", now))

	mock.ExpectCommit()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)

	settlement, err := SettleInTx(ctx, tx, SettleParams{
		UserID:      10,
		ClubID:      3,
		Type:        TypeClubFee,
		AmountCents: 2000,
		Currency:    "USD",
		Description: "Joining fee",
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.Equal(t, StatusCompleted, settlement.Payment.Status)
	require.Equal(t, MethodBalance, settlement.Payment.Method)
	require.False(t, settlement.Payment.IsCrossClub)
	require.False(t, settlement.Replayed)
	require.Equal(t, int64(-2000), settlement.Entry.AmountCents)
	require.Equal(t, int64(5000), settlement.Entry.BalanceBeforeCents)
	require.Equal(t, int64(3000), settlement.Entry.BalanceAfterCents)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleInTx_InsufficientFunds(t *testing.T) {
	db, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockUserQuery)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance_cents", "currency", "club_id"}).
			AddRow(10, 500, "USD", nil))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = SettleInTx(ctx, tx, SettleParams{
		UserID:      10,
		ClubID:      3,
		Type:        TypeClubFee,
		AmountCents: 2000,
		Currency:    "USD",
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// The shortfall details ride on the error for the 402 body
	var ife *InsufficientFundsError
	require.ErrorAs(t, err, &ife)
	require.Equal(t, int64(2000), ife.RequiredCents)
	require.Equal(t, int64(500), ife.AvailableCents)
}

func TestSettleInTx_CurrencyMismatch(t *testing.T) {
	db, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockUserQuery)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance_cents", "currency", "club_id"}).
			AddRow(10, 5000, "EUR", nil))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = SettleInTx(ctx, tx, SettleParams{
		UserID:      10,
		ClubID:      3,
		Type:        TypeClubFee,
		AmountCents: 2000,
		Currency:    "USD",
	})
	require.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestSettleInTx_UserNotFound(t *testing.T) {
	db, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockUserQuery)).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = SettleInTx(ctx, tx, SettleParams{
		UserID:      99,
		ClubID:      3,
		Type:        TypeClubFee,
		AmountCents: 2000,
		Currency:    "USD",
	})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestSettleInTx_CrossClubFlag(t *testing.T) {
	db, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()
	now := time.Now()
	otherClub := 7

	mock.ExpectBegin()

	// User belongs to club 7, pays club 3. The payment is cross-club.
	mock.ExpectQuery(regexp.QuoteMeta(lockUserQuery)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance_cents", "currency", "club_id"}).
			AddRow(10, 5000, "USD", otherClub))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payments")).
		WithArgs(10, 3, nil, "donation", 1000, "USD", "", true, nil).
		WillReturnRows(sqlmock.NewRows(paymentRowColumns()).
			AddRow(2, 10, 3, nil, "donation", 1000, "USD", "completed", "balance", "", true, nil, now, now))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users")).
		WithArgs(4000, 10).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO balance_transactions")).
		WithArgs(10, 2, 3, nil, -1000, 5000, 4000, "USD").
		WillReturnRows(sqlmock.NewRows(entryRowColumns()).
			AddRow(2, 10, 2, 3, nil, -1000, 5000, 4000, "USD", now))

	mock.ExpectCommit()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)

	settlement, err := SettleInTx(ctx, tx, SettleParams{
		UserID:      10,
		ClubID:      3,
		Type:        TypeDonation,
		AmountCents: 1000,
		Currency:    "USD",
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.True(t, settlement.Payment.IsCrossClub)
}

func TestSettleInTx_IdempotentReplay(t *testing.T) {
	db, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()
	now := time.Now()
	txnID := "retry-key-0001"

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + paymentColumns + " FROM payments WHERE transaction_id = $1")).
		WithArgs(txnID).
		WillReturnRows(sqlmock.NewRows(paymentRowColumns()).
			AddRow(1, 10, 3, nil, "club_fee", 2000, "USD", "completed", "balance", "Joining fee", false, txnID, now, now))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + entryColumns + " FROM balance_transactions WHERE payment_id = $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(entryRowColumns()).
			AddRow(1, 10, 1, 3, nil, -2000, 5000, 3000, "USD", now))

	mock.ExpectCommit()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)

	settlement, err := SettleInTx(ctx, tx, SettleParams{
		UserID:        10,
		ClubID:        3,
		Type:          TypeClubFee,
		AmountCents:   2000,
		Currency:      "USD",
		TransactionID: &txnID,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.True(t, settlement.Replayed)
	require.Equal(t, 1, settlement.Payment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleInTx_DuplicateTransactionID(t *testing.T) {
	db, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()
	now := time.Now()
	txnID := "retry-key-0002"

	mock.ExpectBegin()

	// Key is held by a pending external payment, not a completed balance
	// settlement. This is a conflict, not a replay.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + paymentColumns + " FROM payments WHERE transaction_id = $1")).
		WithArgs(txnID).
		WillReturnRows(sqlmock.NewRows(paymentRowColumns()).
			AddRow(1, 10, 3, nil, "club_fee", 2000, "USD", "pending", "external", "", false, txnID, now, now))

	mock.ExpectRollback()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = SettleInTx(ctx, tx, SettleParams{
		UserID:        10,
		ClubID:        3,
		Type:          TypeClubFee,
		AmountCents:   2000,
		Currency:      "USD",
		TransactionID: &txnID,
	})
	require.ErrorIs(t, err, ErrDuplicateTransactionID)
}

func TestCreditInTx_Success(t *testing.T) {
	db, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta(lockUserQuery)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance_cents", "currency", "club_id"}).
			AddRow(10, 1000, "USD", nil))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET balance_cents = $1, updated_at = NOW() WHERE id = $2")).
		WithArgs(6000, 10).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO balance_transactions")).
		WithArgs(10, 5000, 1000, 6000, "USD").
		WillReturnRows(sqlmock.NewRows(entryRowColumns()).
			AddRow(3, 10, nil, nil, nil, 5000, 1000, 6000, "USD", now))

	mock.ExpectCommit()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)

	entry, err := CreditInTx(ctx, tx, 10, 5000)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.Equal(t, int64(5000), entry.AmountCents)
	require.Equal(t, int64(6000), entry.BalanceAfterCents)
	require.Nil(t, entry.PaymentID)
}
