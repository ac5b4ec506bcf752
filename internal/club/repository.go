package club

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrClubNotFound = errors.New("club not found")

const clubColumns = `id, name, description, city, joining_fee_cents, currency, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p CreateClubRequest) (*Club, error) {
	var club Club
	err := r.db.GetContext(ctx, &club,
		`INSERT INTO clubs (name, description, city, joining_fee_cents, currency)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+clubColumns,
		p.Name, p.Description, p.City, p.JoiningFeeCents, p.Currency,
	)
	if err != nil {
		return nil, err
	}
	return &club, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Club, error) {
	var club Club
	err := r.db.GetContext(ctx, &club,
		`SELECT `+clubColumns+` FROM clubs WHERE id = $1`,
		id,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClubNotFound
		}
		return nil, err
	}
	return &club, nil
}

func (r *repository) List(ctx context.Context) ([]Club, error) {
	clubs := []Club{}
	err := r.db.SelectContext(ctx, &clubs,
		`SELECT `+clubColumns+` FROM clubs ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	return clubs, nil
}

func (r *repository) MemberCount(ctx context.Context, clubID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM users WHERE club_id = $1`,
		clubID,
	)
	if err != nil {
		return 0, err
	}
	return count, nil
}
