package membership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/grush1k033/club-management-sub000/internal/ledger"
)

var (
	ErrRequestNotFound   = errors.New("join request not found")
	ErrRequestNotPending = errors.New("join request is no longer pending")
	ErrAlreadyMember     = errors.New("user already belongs to a club")
)

const requestColumns = `id, user_id, club_id, status, payment_id, reason, processed_by, processed_at, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetPending(ctx context.Context, userID, clubID int) (*ClubJoinRequest, error) {
	var req ClubJoinRequest
	err := r.db.GetContext(ctx, &req,
		`SELECT `+requestColumns+`
		 FROM club_join_requests
		 WHERE user_id = $1 AND club_id = $2 AND status = 'pending'`,
		userID, clubID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// GetOrCreatePending relies on the partial unique index over pending
// rows: a concurrent insert loses with a unique violation and re-reads
// the winner's row.
func (r *repository) GetOrCreatePending(ctx context.Context, userID, clubID int) (*ClubJoinRequest, error) {
	req, err := r.GetPending(ctx, userID, clubID)
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, ErrRequestNotFound) {
		return nil, err
	}

	var created ClubJoinRequest
	err = r.db.QueryRowxContext(ctx,
		`INSERT INTO club_join_requests (user_id, club_id, status)
		 VALUES ($1, $2, 'pending')
		 RETURNING `+requestColumns,
		userID, clubID,
	).StructScan(&created)
	if err == nil {
		return &created, nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return r.GetPending(ctx, userID, clubID)
	}
	return nil, err
}

func (r *repository) HasApproved(ctx context.Context, userID, clubID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(
			SELECT 1 FROM club_join_requests
			WHERE user_id = $1 AND club_id = $2 AND status = 'approved'
		)`,
		userID, clubID,
	)
	return exists, err
}

// ApproveAndJoin runs the joining-fee settlement, the request approval
// and the club assignment as one transaction. The user row lock taken
// first covers both the membership check and the balance mutation, so a
// user can neither be charged without gaining membership nor gain
// membership without the charge committing.
func (r *repository) ApproveAndJoin(ctx context.Context, p ApproveParams) (*ApproveResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin join settlement: %w", err)
	}
	defer tx.Rollback()

	var clubID *int
	err = tx.QueryRowxContext(ctx,
		`SELECT club_id FROM users WHERE id = $1 FOR UPDATE`,
		p.UserID,
	).Scan(&clubID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrUserNotFound
		}
		return nil, fmt.Errorf("lock user row: %w", err)
	}
	if clubID != nil {
		return nil, ErrAlreadyMember
	}

	var status JoinRequestStatus
	err = tx.QueryRowxContext(ctx,
		`SELECT status FROM club_join_requests WHERE id = $1 FOR UPDATE`,
		p.RequestID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("lock join request: %w", err)
	}
	if status != StatusPending {
		return nil, ErrRequestNotPending
	}

	var settlement *ledger.Settlement
	var paymentID *int
	if p.Settle != nil {
		settlement, err = ledger.SettleInTx(ctx, tx, *p.Settle)
		if err != nil {
			return nil, err
		}
		paymentID = &settlement.Payment.ID
	}

	var req ClubJoinRequest
	err = tx.QueryRowxContext(ctx,
		`UPDATE club_join_requests
		 SET status = 'approved', payment_id = $2, processed_by = $3, processed_at = NOW(), updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+requestColumns,
		p.RequestID, paymentID, p.ActorID,
	).StructScan(&req)
	if err != nil {
		return nil, fmt.Errorf("approve join request: %w", err)
	}

	// Final step: club assignment. Single source of truth for
	// membership is users.club_id.
	_, err = tx.ExecContext(ctx,
		`UPDATE users SET club_id = $2, updated_at = NOW() WHERE id = $1`,
		p.UserID, p.ClubID,
	)
	if err != nil {
		return nil, fmt.Errorf("assign club: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit join settlement: %w", err)
	}

	return &ApproveResult{Request: req, Settlement: settlement}, nil
}

func (r *repository) MarkCancelled(ctx context.Context, requestID int, reason string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE club_join_requests
		 SET status = 'cancelled', reason = $2, updated_at = NOW()
		 WHERE id = $1 AND status = 'pending'`,
		requestID, reason,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *repository) CancelPending(ctx context.Context, userID, clubID int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE club_join_requests
		 SET status = 'cancelled', reason = 'withdrawn by user', updated_at = NOW()
		 WHERE user_id = $1 AND club_id = $2 AND status = 'pending'`,
		userID, clubID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *repository) ListForUser(ctx context.Context, userID int) ([]ClubJoinRequest, error) {
	reqs := []ClubJoinRequest{}
	err := r.db.SelectContext(ctx, &reqs,
		`SELECT `+requestColumns+`
		 FROM club_join_requests
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *repository) ListPendingByClub(ctx context.Context, clubID int) ([]ClubJoinRequest, error) {
	reqs := []ClubJoinRequest{}
	err := r.db.SelectContext(ctx, &reqs,
		`SELECT `+requestColumns+`
		 FROM club_join_requests
		 WHERE club_id = $1 AND status = 'pending'
		 ORDER BY created_at`,
		clubID,
	)
	if err != nil {
		return nil, err
	}
	return reqs, nil
}
