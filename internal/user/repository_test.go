package user

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

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "password_hash", "role", "club_id",
		"balance_cents", "currency", "created_at", "updated_at",
	})
}

func TestCreate(t *testing.T) {
	repo, mock := setupRepoMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING`)).
		WithArgs("Alice", "alice@test.com", "hashed", "member").
		WillReturnRows(userRows().AddRow(
			10, "Alice", "alice@test.com", "hashed", "member", nil,
			0, "USD", time.Now(), time.Now(),
		))

	u, err := repo.Create(ctx, "Alice", "alice@test.com", "hashed", "member")

	require.NoError(t, err)
	assert.Equal(t, 10, u.ID)
	assert.Equal(t, "member", u.Role)
	assert.Nil(t, u.ClubID)
	assert.Equal(t, int64(0), u.BalanceCents)
}

func TestFindByEmail(t *testing.T) {
	repo, mock := setupRepoMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("alice@test.com").
		WillReturnRows(userRows().AddRow(
			10, "Alice", "alice@test.com", "hashed", "member", 3,
			5000, "USD", time.Now(), time.Now(),
		))

	u, err := repo.FindByEmail(ctx, "alice@test.com")

	require.NoError(t, err)
	assert.Equal(t, 10, u.ID)
	require.NotNil(t, u.ClubID)
	assert.Equal(t, 3, *u.ClubID)
	assert.Equal(t, int64(5000), u.BalanceCents)
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock := setupRepoMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email = $1`)).
		WithArgs("nobody@test.com").
		WillReturnRows(userRows())

	u, err := repo.FindByEmail(ctx, "nobody@test.com")

	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, u)
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock := setupRepoMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id = $1`)).
		WithArgs(99).
		WillReturnRows(userRows())

	u, err := repo.FindByID(ctx, 99)

	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, u)
}

func TestEmailExists(t *testing.T) {
	repo, mock := setupRepoMock(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`)).
		WithArgs("alice@test.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.EmailExists(ctx, "alice@test.com")

	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGetProfile(t *testing.T) {
	repo, mock := setupRepoMock(t)
	ctx := context.Background()

	profileRows := sqlmock.NewRows([]string{
		"id", "name", "email", "password_hash", "role", "club_id",
		"balance_cents", "currency", "created_at", "updated_at", "club_name",
	}).AddRow(
		10, "Alice", "alice@test.com", "hashed", "member", 3,
		5000, "USD", time.Now(), time.Now(), "Chess Club",
	)

	mock.ExpectQuery(`SELECT u.id, u.name`).
		WithArgs(10).
		WillReturnRows(profileRows)

	p, err := repo.GetProfile(ctx, 10)

	require.NoError(t, err)
	assert.Equal(t, 10, p.ID)
	require.NotNil(t, p.ClubName)
	assert.Equal(t, "Chess Club", *p.ClubName)
}

func TestGetProfile_NoClub(t *testing.T) {
	repo, mock := setupRepoMock(t)
	ctx := context.Background()

	profileRows := sqlmock.NewRows([]string{
		"id", "name", "email", "password_hash", "role", "club_id",
		"balance_cents", "currency", "created_at", "updated_at", "club_name",
	}).AddRow(
		11, "Bob", "bob@test.com", "hashed", "member", nil,
		0, "USD", time.Now(), time.Now(), nil,
	)

	mock.ExpectQuery(`SELECT u.id, u.name`).
		WithArgs(11).
		WillReturnRows(profileRows)

	p, err := repo.GetProfile(ctx, 11)

	require.NoError(t, err)
	assert.Nil(t, p.ClubID)
	assert.Nil(t, p.ClubName)
}
