package event

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrEventNotFound = errors.New("event not found")

const eventColumns = `id, club_id, title, description, status, fee_cents, currency, free_for_members, max_participants, starts_at, ends_at, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, clubID int, title, description string, feeCents int64, currency string, freeForMembers bool, maxParticipants int, startsAt, endsAt time.Time) (*Event, error) {
	var ev Event
	err := r.db.GetContext(ctx, &ev,
		`INSERT INTO events (club_id, title, description, status, fee_cents, currency, free_for_members, max_participants, starts_at, ends_at)
		 VALUES ($1, $2, $3, 'scheduled', $4, $5, $6, $7, $8, $9)
		 RETURNING `+eventColumns,
		clubID, title, description, feeCents, currency, freeForMembers, maxParticipants, startsAt, endsAt,
	)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Event, error) {
	var ev Event
	err := r.db.GetContext(ctx, &ev,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`,
		id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &ev, nil
}

func (r *repository) List(ctx context.Context, clubID *int, onlyUpcoming bool) ([]EventWithAvailability, error) {
	query := `
		SELECT e.id, e.club_id, e.title, e.description, e.status, e.fee_cents, e.currency,
		       e.free_for_members, e.max_participants, e.starts_at, e.ends_at, e.created_at,
		       COUNT(p.id) FILTER (WHERE p.status = 'registered') AS registered_count
		FROM events e
		LEFT JOIN event_participants p ON p.event_id = e.id
		WHERE ($1::int IS NULL OR e.club_id = $1)
		  AND (NOT $2 OR e.starts_at > NOW())
		GROUP BY e.id
		ORDER BY e.starts_at
	`

	events := []EventWithAvailability{}
	err := r.db.SelectContext(ctx, &events, query, clubID, onlyUpcoming)
	if err != nil {
		return nil, err
	}

	for i := range events {
		events[i].SpotsLeft = events[i].MaxParticipants - events[i].RegisteredCount
		if events[i].SpotsLeft < 0 {
			events[i].SpotsLeft = 0
		}
		events[i].IsFull = events[i].RegisteredCount >= events[i].MaxParticipants
	}

	return events, nil
}

func (r *repository) SetStatus(ctx context.Context, id int, status EventStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE events SET status = $2 WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}
