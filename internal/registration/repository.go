package registration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/grush1k033/club-management-sub000/internal/event"
	"github.com/grush1k033/club-management-sub000/internal/ledger"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrEventNotOpen      = errors.New("event is not open for registration")
	ErrCapacityExceeded  = errors.New("event capacity exceeded")
	ErrAlreadyRegistered = errors.New("user already registered for this event")
	ErrAlreadyAttended   = errors.New("user already attended this event")
	ErrNotFound          = errors.New("registration not found")
	ErrNotCancellable    = errors.New("registration not found or already cancelled")
)

const participantColumns = `id, event_id, user_id, status, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

type lockedEvent struct {
	ID              int               `db:"id"`
	Status          event.EventStatus `db:"status"`
	MaxParticipants int               `db:"max_participants"`
}

// Register runs the whole registration as one transaction. The event row
// lock serializes the capacity check against concurrent registrations for
// the same event; the settlement, when present, runs inside the same
// transaction so the participant row is never visible without its
// payment, and vice versa.
func (r *repository) Register(ctx context.Context, p RegisterParams) (*RegisterResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin registration: %w", err)
	}
	defer tx.Rollback()

	var ev lockedEvent
	err = tx.QueryRowxContext(ctx,
		`SELECT id, status, max_participants
		 FROM events
		 WHERE id = $1
		 FOR UPDATE`,
		p.EventID,
	).StructScan(&ev)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	if ev.Status != event.StatusScheduled {
		return nil, ErrEventNotOpen
	}

	var existing Participant
	action := ActionRegistered
	reuseRow := false
	err = tx.QueryRowxContext(ctx,
		`SELECT `+participantColumns+`
		 FROM event_participants
		 WHERE event_id = $1 AND user_id = $2
		 FOR UPDATE`,
		p.EventID, p.UserID,
	).StructScan(&existing)
	switch {
	case err == nil:
		switch existing.Status {
		case StatusRegistered:
			return nil, ErrAlreadyRegistered
		case StatusAttended:
			return nil, ErrAlreadyAttended
		case StatusCancelled:
			reuseRow = true
			action = ActionReRegistered
		}
	case errors.Is(err, sql.ErrNoRows):
		// first registration for this (event, user) pair
	default:
		return nil, fmt.Errorf("check existing registration: %w", err)
	}

	var count int
	err = tx.GetContext(ctx, &count,
		`SELECT COUNT(*)
		 FROM event_participants
		 WHERE event_id = $1 AND status = 'registered'`,
		p.EventID,
	)
	if err != nil {
		return nil, fmt.Errorf("count participants: %w", err)
	}

	if count >= ev.MaxParticipants {
		return nil, ErrCapacityExceeded
	}

	var settlement *ledger.Settlement
	if p.Settle != nil {
		settlement, err = ledger.SettleInTx(ctx, tx, *p.Settle)
		if err != nil {
			return nil, err
		}
	}

	var participant Participant
	if reuseRow {
		err = tx.QueryRowxContext(ctx,
			`UPDATE event_participants
			 SET status = 'registered', updated_at = NOW()
			 WHERE id = $1
			 RETURNING `+participantColumns,
			existing.ID,
		).StructScan(&participant)
	} else {
		err = tx.QueryRowxContext(ctx,
			`INSERT INTO event_participants (event_id, user_id, status)
			 VALUES ($1, $2, 'registered')
			 RETURNING `+participantColumns,
			p.EventID, p.UserID,
		).StructScan(&participant)
	}
	if err != nil {
		return nil, fmt.Errorf("write participant row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit registration: %w", err)
	}

	return &RegisterResult{
		Participant:         participant,
		Action:              action,
		CurrentParticipants: count + 1,
		Settlement:          settlement,
	}, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Participant, error) {
	var participant Participant
	err := r.db.GetContext(ctx, &participant,
		`SELECT `+participantColumns+` FROM event_participants WHERE id = $1`,
		id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &participant, nil
}

func (r *repository) Cancel(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE event_participants
		 SET status = 'cancelled', updated_at = NOW()
		 WHERE id = $1 AND status = 'registered'`,
		id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotCancellable
	}
	return nil
}

func (r *repository) MarkAttended(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE event_participants
		 SET status = 'attended', updated_at = NOW()
		 WHERE id = $1 AND status = 'registered'`,
		id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) CountRegistered(ctx context.Context, eventID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*)
		 FROM event_participants
		 WHERE event_id = $1 AND status = 'registered'`,
		eventID,
	)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) GetUserRegistrations(ctx context.Context, userID int) ([]RegistrationWithEvent, error) {
	regs := []RegistrationWithEvent{}
	err := r.db.SelectContext(ctx, &regs, `
		SELECT p.id, p.event_id, p.user_id, p.status, p.created_at, p.updated_at,
		       e.title AS event_title,
		       e.starts_at AS event_starts_at,
		       c.name AS club_name
		FROM event_participants p
		JOIN events e ON p.event_id = e.id
		JOIN clubs c ON e.club_id = c.id
		WHERE p.user_id = $1
		ORDER BY e.starts_at DESC, p.id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return regs, nil
}

func (r *repository) ListByEvent(ctx context.Context, eventID int) ([]ParticipantWithUser, error) {
	participants := []ParticipantWithUser{}
	err := r.db.SelectContext(ctx, &participants, `
		SELECT p.id, p.event_id, p.user_id, p.status, p.created_at, p.updated_at,
		       u.name AS user_name,
		       u.email AS user_email
		FROM event_participants p
		JOIN users u ON p.user_id = u.id
		WHERE p.event_id = $1
		ORDER BY p.created_at
	`, eventID)
	if err != nil {
		return nil, err
	}
	return participants, nil
}
