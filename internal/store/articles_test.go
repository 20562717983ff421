package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/conduit/backend/internal/models"
)

func TestListArticles(t *testing.T) {
	ctx := context.Background()

	t.Run("TagFilterWithPagination", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery(`SELECT a\.id, .* FROM articles a JOIN users u ON u\.id = a\.author_id ` +
			`WHERE EXISTS \(SELECT 1 FROM article_tags atg JOIN tags t ON t\.id = atg\.tag_id WHERE atg\.article_id = a\.id AND t\.name = \$1\) ` +
			`ORDER BY a\.created_at DESC, a\.id DESC LIMIT 10 OFFSET 10`).
			WithArgs("dragons").
			WillReturnRows(sqlmock.NewRows(articleRowColumns).
				AddRow("a2", "dragon-2-abcde", "Dragon 2", "d", "b", "u1", testTime(2), testTime(2), "jake", nil, nil, "{dragons,training}").
				AddRow("a1", "dragon-fghij", "Dragon", "d", "b", "u1", testTime(1), testTime(1), "jake", nil, nil, "{dragons}"))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM articles a JOIN users u ON u\.id = a\.author_id WHERE EXISTS .* t\.name = \$1\)$`).
			WithArgs("dragons").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
		mock.ExpectQuery(`SELECT article_id, user_id FROM favorites WHERE article_id IN \(\$1,\$2\)`).
			WithArgs("a2", "a1").
			WillReturnRows(sqlmock.NewRows([]string{"article_id", "user_id"}).
				AddRow("a2", "u7").
				AddRow("a2", "u8"))
		mock.ExpectQuery(`SELECT followed_id, follower_id FROM follows WHERE followed_id IN \(\$1\)`).
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows([]string{"followed_id", "follower_id"}).AddRow("u1", "u7"))

		records, total, err := s.ListArticles(ctx, models.ArticleFilter{Tag: "dragons", Limit: 10, Offset: 10})
		require.NoError(t, err)
		assert.Equal(t, 12, total)
		require.Len(t, records, 2)

		assert.Equal(t, "dragon-2-abcde", records[0].Slug)
		assert.Equal(t, []string{"dragons", "training"}, records[0].Tags)
		assert.Equal(t, []string{"u7", "u8"}, records[0].FavoritedBy)
		assert.Equal(t, []string{"u7"}, records[0].AuthorFollowers)
		assert.Equal(t, "jake", records[0].Author.Username)

		assert.Empty(t, records[1].FavoritedBy)
		assert.Equal(t, []string{"u7"}, records[1].AuthorFollowers)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AllFiltersAreANDed", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery(`WHERE EXISTS .* t\.name = \$1\) AND u\.username = \$2 AND EXISTS .* fu\.username = \$3\) `+
			`AND EXISTS .* fo\.follower_id = \$4\) ORDER BY`).
			WithArgs("dragons", "jake", "anna", "u9").
			WillReturnRows(sqlmock.NewRows(articleRowColumns))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM articles a`).
			WithArgs("dragons", "jake", "anna", "u9").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		records, total, err := s.ListArticles(ctx, models.ArticleFilter{
			Tag:         "dragons",
			Author:      "jake",
			FavoritedBy: "anna",
			FollowedBy:  "u9",
			Limit:       10,
		})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, records)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NoFilterIsUnrestricted", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery(`FROM articles a JOIN users u ON u\.id = a\.author_id ORDER BY a\.created_at DESC, a\.id DESC LIMIT 10$`).
			WillReturnRows(sqlmock.NewRows(articleRowColumns))
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM articles a JOIN users u ON u\.id = a\.author_id$`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		_, _, err := s.ListArticles(ctx, models.ArticleFilter{Limit: 10})
		require.NoError(t, err)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("QueryError", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery(`FROM articles a`).WillReturnError(errors.New("connection reset"))

		_, _, err := s.ListArticles(ctx, models.ArticleFilter{Limit: 10})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "list articles")
	})
}

func TestGetArticleBySlug(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery(`FROM articles a JOIN users u ON u\.id = a\.author_id WHERE a\.slug = \$1`).
			WithArgs("how-to-train-your-dragon").
			WillReturnRows(sqlmock.NewRows(articleRowColumns).
				AddRow("a1", "how-to-train-your-dragon", "How to train your dragon", "Ever wonder how?",
					"Very carefully.", "u1", testTime(0), testTime(0), "jake", "I work at statefarm", nil, "{}"))
		mock.ExpectQuery(`FROM favorites`).WithArgs("a1").
			WillReturnRows(sqlmock.NewRows([]string{"article_id", "user_id"}))
		mock.ExpectQuery(`FROM follows`).WithArgs("u1").
			WillReturnRows(sqlmock.NewRows([]string{"followed_id", "follower_id"}))

		rec, err := s.GetArticleBySlug(ctx, "how-to-train-your-dragon")
		require.NoError(t, err)
		assert.Equal(t, "a1", rec.ID)
		assert.Equal(t, []string{}, rec.Tags)
		require.NotNil(t, rec.Author.Bio)
		assert.Equal(t, "I work at statefarm", *rec.Author.Bio)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectQuery(`WHERE a\.slug = \$1`).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(articleRowColumns))

		_, err := s.GetArticleBySlug(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCreateArticle(t *testing.T) {
	ctx := context.Background()
	na := models.NewArticle{
		Slug:        "how-to-train-your-dragon-x1y2z",
		Title:       "How to train your dragon",
		Description: "Ever wonder how?",
		Body:        "Very carefully.",
		AuthorID:    "u1",
		Tags:        []string{"dragons", "training"},
	}

	t.Run("UpsertsTagsInTransaction", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO articles \(slug,title,description,body,author_id\) VALUES \(\$1,\$2,\$3,\$4,\$5\) RETURNING id, created_at, updated_at`).
			WithArgs(na.Slug, na.Title, na.Description, na.Body, na.AuthorID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow("a1", testTime(5), testTime(5)))
		mock.ExpectExec(`INSERT INTO tags \(name\) VALUES \(\$1\),\(\$2\) ON CONFLICT \(name\) DO NOTHING`).
			WithArgs("dragons", "training").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO article_tags \(article_id,tag_id\) SELECT \$1::uuid, id FROM tags WHERE name IN \(\$2,\$3\)`).
			WithArgs("a1", "dragons", "training").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectQuery(`SELECT id, username, email, password_hash, bio, image, created_at, updated_at FROM users WHERE id = \$1`).
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow("u1", "jake", "jake@jake.jake", "hash", nil, nil, testTime(0), testTime(0)))
		mock.ExpectCommit()

		rec, err := s.CreateArticle(ctx, na)
		require.NoError(t, err)
		assert.Equal(t, "a1", rec.ID)
		assert.Equal(t, na.Slug, rec.Slug)
		assert.Equal(t, testTime(5), rec.CreatedAt)
		assert.Equal(t, []string{"dragons", "training"}, rec.Tags)
		assert.Equal(t, "jake", rec.Author.Username)
		assert.Empty(t, rec.FavoritedBy)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ReturnsTagsByName", func(t *testing.T) {
		s, mock := newMockStore(t)
		unsorted := na
		unsorted.Tags = []string{"training", "dragons"}

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO articles`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow("a1", testTime(5), testTime(5)))
		mock.ExpectExec(`INSERT INTO tags \(name\) VALUES \(\$1\),\(\$2\) ON CONFLICT \(name\) DO NOTHING`).
			WithArgs("training", "dragons").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`INSERT INTO article_tags`).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow("u1", "jake", "jake@jake.jake", "hash", nil, nil, testTime(0), testTime(0)))
		mock.ExpectCommit()

		rec, err := s.CreateArticle(ctx, unsorted)
		require.NoError(t, err)
		assert.Equal(t, []string{"dragons", "training"}, rec.Tags)
		assert.Equal(t, []string{"training", "dragons"}, unsorted.Tags)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NoTagsSkipsUpsert", func(t *testing.T) {
		s, mock := newMockStore(t)

		untagged := na
		untagged.Tags = nil

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO articles`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow("a1", testTime(5), testTime(5)))
		mock.ExpectQuery(`FROM users WHERE id = \$1`).
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow("u1", "jake", "jake@jake.jake", "hash", nil, nil, testTime(0), testTime(0)))
		mock.ExpectCommit()

		rec, err := s.CreateArticle(ctx, untagged)
		require.NoError(t, err)
		assert.Equal(t, []string{}, rec.Tags)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("SlugTakenIsConflict", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO articles`).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "articles_slug_key"})
		mock.ExpectRollback()

		_, err := s.CreateArticle(ctx, na)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Contains(t, err.Error(), "articles_slug_key")

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("TagFailureRollsBack", func(t *testing.T) {
		s, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO articles`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow("a1", testTime(5), testTime(5)))
		mock.ExpectExec(`INSERT INTO tags`).WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		_, err := s.CreateArticle(ctx, na)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upsert tags")

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListTags(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT name FROM tags ORDER BY name`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("dragons").AddRow("training"))

	tags, err := s.ListTags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"dragons", "training"}, tags)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTagsEmpty(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT name FROM tags`).WillReturnRows(sqlmock.NewRows([]string{"name"}))

	tags, err := s.ListTags(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
}
