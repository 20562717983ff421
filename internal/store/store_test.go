package store

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewPostgresStore(sqlx.NewDb(db, "pgx")), mock
}

var userRowColumns = []string{"id", "username", "email", "password_hash", "bio", "image", "created_at", "updated_at"}

var articleRowColumns = []string{
	"id", "slug", "title", "description", "body", "author_id", "created_at", "updated_at",
	"author_username", "author_bio", "author_image", "tag_list",
}

func testTime(minute int) time.Time {
	return time.Date(2024, 3, 1, 12, minute, 0, 0, time.UTC)
}
