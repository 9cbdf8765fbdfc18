package repositories

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-service/internal/pagination"
)

func TestSearchPrefixMatchesLiterally(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepo(db)

	// LIKE metacharacters in the query must not act as wildcards.
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE username LIKE $1 || '%'`)).
		WithArgs(`\_ad\%`, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))

	_, err := repo.SearchByUsernamePrefix(context.Background(), "_ad%", pagination.Cursor{}, 20)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLikePrefix(t *testing.T) {
	assert.Equal(t, `ada`, escapeLikePrefix(`ada`))
	assert.Equal(t, `\_\_`, escapeLikePrefix(`__`))
	assert.Equal(t, `\%a\\b`, escapeLikePrefix(`%a\b`))
}
