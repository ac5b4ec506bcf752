package ledger_test

import (
	"context"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/grush1k033/club-management-sub000/internal/ledger"
	"github.com/grush1k033/club-management-sub000/internal/membership"
)

func TestJoinFlow_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	repo := membership.NewRepository(db)
	ctx := context.Background()

	clubID := createTestClub(t, db, "Chess Club", 2500)
	userID := createTestUser(t, db, "join@test.com", "Join User", 5000)
	adminID := createTestUser(t, db, "admin@test.com", "Admin", 0)

	req, err := repo.GetOrCreatePending(ctx, userID, clubID)
	require.NoError(t, err)
	require.Equal(t, membership.StatusPending, req.Status)

	result, err := repo.ApproveAndJoin(ctx, membership.ApproveParams{
		RequestID: req.ID,
		UserID:    userID,
		ClubID:    clubID,
		ActorID:   adminID,
		Settle: &ledger.SettleParams{
			UserID:      userID,
			ClubID:      clubID,
			Type:        ledger.TypeClubFee,
			AmountCents: 2500,
			Currency:    "USD",
			Description: "Joining fee: Chess Club",
		},
	})
	require.NoError(t, err)

	require.Equal(t, membership.StatusApproved, result.Request.Status)
	require.NotNil(t, result.Request.PaymentID)
	require.NotNil(t, result.Settlement)

	// Fee charged and club assigned in the same transaction
	var clubIDAfter *int
	err = db.Get(&clubIDAfter, "SELECT club_id FROM users WHERE id = $1", userID)
	require.NoError(t, err)
	require.NotNil(t, clubIDAfter)
	require.Equal(t, clubID, *clubIDAfter)

	var balance int64
	err = db.Get(&balance, "SELECT balance_cents FROM users WHERE id = $1", userID)
	require.NoError(t, err)
	require.Equal(t, int64(2500), balance)
}

func TestJoinFlow_FreeClub_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	repo := membership.NewRepository(db)
	ctx := context.Background()

	clubID := createTestClub(t, db, "Book Club", 0)
	userID := createTestUser(t, db, "free@test.com", "Free User", 0)
	adminID := createTestUser(t, db, "admin2@test.com", "Admin", 0)

	req, err := repo.GetOrCreatePending(ctx, userID, clubID)
	require.NoError(t, err)

	result, err := repo.ApproveAndJoin(ctx, membership.ApproveParams{
		RequestID: req.ID,
		UserID:    userID,
		ClubID:    clubID,
		ActorID:   adminID,
	})
	require.NoError(t, err)

	require.Equal(t, membership.StatusApproved, result.Request.Status)
	require.Nil(t, result.Request.PaymentID)
	require.Nil(t, result.Settlement)
}

func TestJoinFlow_InsufficientFundsRollsBack_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	repo := membership.NewRepository(db)
	ctx := context.Background()

	clubID := createTestClub(t, db, "Chess Club", 2500)
	userID := createTestUser(t, db, "joinpoor@test.com", "Poor Joiner", 1000)
	adminID := createTestUser(t, db, "admin3@test.com", "Admin", 0)

	req, err := repo.GetOrCreatePending(ctx, userID, clubID)
	require.NoError(t, err)

	_, err = repo.ApproveAndJoin(ctx, membership.ApproveParams{
		RequestID: req.ID,
		UserID:    userID,
		ClubID:    clubID,
		ActorID:   adminID,
		Settle: &ledger.SettleParams{
			UserID:      userID,
			ClubID:      clubID,
			Type:        ledger.TypeClubFee,
			AmountCents: 2500,
			Currency:    "USD",
			Description: "Joining fee: Chess Club",
		},
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	// Everything rolled back: no club assignment, request still pending
	var clubIDAfter *int
	err = db.Get(&clubIDAfter, "SELECT club_id FROM users WHERE id = $1", userID)
	require.NoError(t, err)
	require.Nil(t, clubIDAfter)

	pending, err := repo.GetPending(ctx, userID, clubID)
	require.NoError(t, err)
	require.Equal(t, membership.StatusPending, pending.Status)
}

func TestGetOrCreatePending_Duplicate_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	repo := membership.NewRepository(db)
	ctx := context.Background()

	clubID := createTestClub(t, db, "Chess Club", 2500)
	userID := createTestUser(t, db, "dupjoin@test.com", "Dup Joiner", 0)

	first, err := repo.GetOrCreatePending(ctx, userID, clubID)
	require.NoError(t, err)

	// Second call returns the existing pending row
	second, err := repo.GetOrCreatePending(ctx, userID, clubID)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var rows int
	err = db.Get(&rows, "SELECT COUNT(*) FROM club_join_requests WHERE user_id = $1 AND club_id = $2", userID, clubID)
	require.NoError(t, err)
	require.Equal(t, 1, rows)
}

func TestCancelPending_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	repo := membership.NewRepository(db)
	ctx := context.Background()

	clubID := createTestClub(t, db, "Chess Club", 2500)
	userID := createTestUser(t, db, "canceljoin@test.com", "Cancel Joiner", 0)

	_, err := repo.GetOrCreatePending(ctx, userID, clubID)
	require.NoError(t, err)

	err = repo.CancelPending(ctx, userID, clubID)
	require.NoError(t, err)

	// A fresh request can be created after cancellation
	fresh, err := repo.GetOrCreatePending(ctx, userID, clubID)
	require.NoError(t, err)
	require.Equal(t, membership.StatusPending, fresh.Status)
}
