package users

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/clipcast/clipcast/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/clipcast/clipcast/internal/server/models"
)

func newMockRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newMockRepo(t)

	created := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("a@b.c", "alice", "Alice", "hash", "http://img/avatar", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u1", created))

	u, err := repo.Create(context.Background(), &models.User{
		Email:        "a@b.c",
		UserName:     "alice",
		FullName:     "Alice",
		PasswordHash: "hash",
		AvatarURL:    "http://img/avatar",
	})
	require.NoError(t, err)
	require.Equal(t, "u1", u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{Email: "a@b.c", UserName: "alice"})
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByLogin_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1 OR username = $1")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByLogin(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSwapRefreshToken_Success(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token = $3")).
		WithArgs("u1", "old-token", "new-token").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SwapRefreshToken(context.Background(), "u1", "old-token", "new-token")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRefreshToken_GuardMismatch(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token = $3")).
		WithArgs("u1", "stale-token", "new-token").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SwapRefreshToken(context.Background(), "u1", "stale-token", "new-token")
	require.ErrorIs(t, err, common.ErrTokenReused)
}

func TestUpdateRefreshToken_UnknownUser(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token = $2")).
		WithArgs("ghost", "tok").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateRefreshToken(context.Background(), "ghost", "tok")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestClearRefreshToken_Idempotent(t *testing.T) {
	repo, mock := newMockRepo(t)

	// Clearing twice affects zero rows the second time; both calls succeed.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token = NULL")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token = NULL")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.ClearRefreshToken(context.Background(), "u1"))
	require.NoError(t, repo.ClearRefreshToken(context.Background(), "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("u1").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.GetByID(context.Background(), "u1")
	require.Error(t, err)
	require.NotErrorIs(t, err, common.ErrorNotFound)
}
