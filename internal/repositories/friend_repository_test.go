package repositories

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestAddFriendshipIsIdempotent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFriendRepo(db)
	ctx := context.Background()

	insert := regexp.QuoteMeta(`INSERT INTO friendships`)
	mock.ExpectExec(insert).WithArgs("u1_u2", "u1", "u2").WillReturnResult(sqlmock.NewResult(0, 1))
	// The second add hits ON CONFLICT DO NOTHING and affects no row.
	mock.ExpectExec(insert).WithArgs("u1_u2", "u1", "u2").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.AddFriendship(ctx, "u2", "u1"))
	require.NoError(t, repo.AddFriendship(ctx, "u1", "u2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveFriendshipOfNonMemberIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFriendRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM friendships WHERE pair_id=$1`)).
		WithArgs("u1_u9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.RemoveFriendship(context.Background(), "u1", "u9"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelfFriendshipRejected(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFriendRepo(db)
	ctx := context.Background()

	assert.ErrorIs(t, repo.AddFriendship(ctx, "u1", "u1"), ErrSelfFriendship)
	assert.ErrorIs(t, repo.RemoveFriendship(ctx, "u1", "u1"), ErrSelfFriendship)
	assert.NoError(t, mock.ExpectationsWereMet())
}
