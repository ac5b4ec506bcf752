package club

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepoMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "postgres")
	return NewRepository(db), mock
}

func clubRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "description", "city", "joining_fee_cents", "currency", "created_at",
	})
}

func TestCreate(t *testing.T) {
	repo, mock := setupRepoMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO clubs (name, description, city, joining_fee_cents, currency) VALUES ($1, $2, $3, $4, $5) RETURNING`)).
		WithArgs("Chess Club", "Weekly blitz nights", "Berlin", int64(2500), "EUR").
		WillReturnRows(clubRows().AddRow(3, "Chess Club", "Weekly blitz nights", "Berlin", 2500, "EUR", time.Now()))

	club, err := repo.Create(ctx, CreateClubRequest{
		Name:            "Chess Club",
		Description:     "Weekly blitz nights",
		City:            "Berlin",
		JoiningFeeCents: 2500,
		Currency:        "EUR",
	})

	require.NoError(t, err)
	assert.Equal(t, 3, club.ID)
	assert.Equal(t, "Chess Club", club.Name)
	assert.Equal(t, int64(2500), club.JoiningFeeCents)
	assert.Equal(t, "EUR", club.Currency)
}

func TestGetByID(t *testing.T) {
	repo, mock := setupRepoMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM clubs WHERE id = $1`)).
		WithArgs(3).
		WillReturnRows(clubRows().AddRow(3, "Chess Club", "", "Berlin", 2500, "EUR", time.Now()))

	club, err := repo.GetByID(ctx, 3)

	require.NoError(t, err)
	assert.Equal(t, 3, club.ID)
	assert.Equal(t, "Chess Club", club.Name)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := setupRepoMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM clubs WHERE id = $1`)).
		WithArgs(99).
		WillReturnRows(clubRows())

	club, err := repo.GetByID(ctx, 99)

	assert.ErrorIs(t, err, ErrClubNotFound)
	assert.Nil(t, club)
}

func TestList(t *testing.T) {
	repo, mock := setupRepoMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM clubs ORDER BY name`)).
		WillReturnRows(clubRows().
			AddRow(1, "Book Club", "", "Hamburg", 0, "EUR", time.Now()).
			AddRow(3, "Chess Club", "", "Berlin", 2500, "EUR", time.Now()))

	clubs, err := repo.List(ctx)

	require.NoError(t, err)
	require.Len(t, clubs, 2)
	assert.Equal(t, "Book Club", clubs[0].Name)
	assert.Equal(t, "Chess Club", clubs[1].Name)
}

func TestList_Empty(t *testing.T) {
	repo, mock := setupRepoMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM clubs ORDER BY name`)).
		WillReturnRows(clubRows())

	clubs, err := repo.List(ctx)

	require.NoError(t, err)
	assert.Empty(t, clubs)
}

func TestMemberCount(t *testing.T) {
	repo, mock := setupRepoMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM users WHERE club_id = $1`)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(17))

	count, err := repo.MemberCount(ctx, 3)

	require.NoError(t, err)
	assert.Equal(t, 17, count)
}
