package store

import (
	"context"
	"slices"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ayush/conduit/backend/internal/models"
)

var articleColumns = []string{
	"a.id", "a.slug", "a.title", "a.description", "a.body", "a.author_id", "a.created_at", "a.updated_at",
	"u.username AS author_username",
	"u.bio AS author_bio",
	"u.image AS author_image",
	`ARRAY(SELECT t.name FROM article_tags atg JOIN tags t ON t.id = atg.tag_id
		WHERE atg.article_id = a.id ORDER BY t.name) AS tag_list`,
}

type articleRow struct {
	models.Article
	AuthorUsername string         `db:"author_username"`
	AuthorBio      *string        `db:"author_bio"`
	AuthorImage    *string        `db:"author_image"`
	TagList        pq.StringArray `db:"tag_list"`
}

func selectArticles(columns ...string) squirrel.SelectBuilder {
	return psql.Select(columns...).
		From("articles a").
		Join("users u ON u.id = a.author_id")
}

// filterArticles adds one predicate per non-empty filter field. The
// predicates are ANDed; with no filters the listing is unrestricted.
func filterArticles(b squirrel.SelectBuilder, f models.ArticleFilter) squirrel.SelectBuilder {
	if f.Tag != "" {
		b = b.Where(squirrel.Expr(`EXISTS (SELECT 1 FROM article_tags atg JOIN tags t ON t.id = atg.tag_id
			WHERE atg.article_id = a.id AND t.name = ?)`, f.Tag))
	}
	if f.Author != "" {
		b = b.Where(squirrel.Eq{"u.username": f.Author})
	}
	if f.FavoritedBy != "" {
		b = b.Where(squirrel.Expr(`EXISTS (SELECT 1 FROM favorites fav JOIN users fu ON fu.id = fav.user_id
			WHERE fav.article_id = a.id AND fu.username = ?)`, f.FavoritedBy))
	}
	if f.FollowedBy != "" {
		b = b.Where(squirrel.Expr(`EXISTS (SELECT 1 FROM follows fo
			WHERE fo.followed_id = a.author_id AND fo.follower_id = ?)`, f.FollowedBy))
	}
	return b
}

// ListArticles returns one page of matching articles, newest first, and the
// total number of matches ignoring pagination.
func (s *PostgresStore) ListArticles(ctx context.Context, f models.ArticleFilter) ([]models.ArticleRecord, int, error) {
	b := filterArticles(selectArticles(articleColumns...), f).
		OrderBy("a.created_at DESC", "a.id DESC")
	if f.Limit > 0 {
		b = b.Limit(f.Limit)
	}
	if f.Offset > 0 {
		b = b.Offset(f.Offset)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, 0, err
	}

	var rows []articleRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, mapError("list articles", err)
	}

	countQuery, countArgs, err := filterArticles(selectArticles("COUNT(*)"), f).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, mapError("count articles", err)
	}

	records, err := loadRelations(ctx, s.db, rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// GetArticleBySlug returns a single article with its relations loaded.
func (s *PostgresStore) GetArticleBySlug(ctx context.Context, slug string) (*models.ArticleRecord, error) {
	query, args, err := selectArticles(articleColumns...).Where(squirrel.Eq{"a.slug": slug}).ToSql()
	if err != nil {
		return nil, err
	}

	var row articleRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, mapError("get article", err)
	}

	records, err := loadRelations(ctx, s.db, []articleRow{row})
	if err != nil {
		return nil, err
	}
	return &records[0], nil
}

// CreateArticle inserts the article, upserts its tags by name and links them,
// all in one transaction. A taken slug yields ErrConflict.
func (s *PostgresStore) CreateArticle(ctx context.Context, na models.NewArticle) (*models.ArticleRecord, error) {
	rec := &models.ArticleRecord{
		Article: models.Article{
			Slug:        na.Slug,
			Title:       na.Title,
			Description: na.Description,
			Body:        na.Body,
			AuthorID:    na.AuthorID,
		},
		Tags: slices.Sorted(slices.Values(na.Tags)),
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := psql.Insert("articles").
			Columns("slug", "title", "description", "body", "author_id").
			Values(na.Slug, na.Title, na.Description, na.Body, na.AuthorID).
			Suffix("RETURNING id, created_at, updated_at").
			ToSql()
		if err != nil {
			return err
		}
		var inserted struct {
			ID        string    `db:"id"`
			CreatedAt time.Time `db:"created_at"`
			UpdatedAt time.Time `db:"updated_at"`
		}
		if err := tx.GetContext(ctx, &inserted, query, args...); err != nil {
			return mapError("insert article", err)
		}
		rec.ID, rec.CreatedAt, rec.UpdatedAt = inserted.ID, inserted.CreatedAt, inserted.UpdatedAt

		if err := linkTags(ctx, tx, rec.ID, na.Tags); err != nil {
			return err
		}

		query, args, err = psql.Select(userColumns...).From("users").Where(squirrel.Eq{"id": na.AuthorID}).ToSql()
		if err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &rec.Author, query, args...); err != nil {
			return mapError("load author", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	return rec, nil
}

// linkTags creates any missing tags and attaches all of them to the article.
// ON CONFLICT DO NOTHING lets concurrent creators of the same name converge
// on the single row guarded by the unique constraint.
func linkTags(ctx context.Context, tx *sqlx.Tx, articleID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	ins := psql.Insert("tags").Columns("name")
	for _, name := range tags {
		ins = ins.Values(name)
	}
	query, args, err := ins.Suffix("ON CONFLICT (name) DO NOTHING").ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return mapError("upsert tags", err)
	}

	query, args, err = psql.Insert("article_tags").
		Columns("article_id", "tag_id").
		Select(squirrel.Select().
			Column(squirrel.Expr("?::uuid", articleID)).
			Column("id").
			From("tags").
			Where(squirrel.Eq{"name": tags})).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return mapError("link tags", err)
	}
	return nil
}

// loadRelations fetches favorited-by and author follower sets for a page of
// articles with one query each, then assembles the records.
func loadRelations(ctx context.Context, q sqlx.QueryerContext, rows []articleRow) ([]models.ArticleRecord, error) {
	records := make([]models.ArticleRecord, 0, len(rows))
	if len(rows) == 0 {
		return records, nil
	}

	articleIDs := make([]string, 0, len(rows))
	authorIDs := make([]string, 0, len(rows))
	seenAuthor := make(map[string]bool, len(rows))
	for _, r := range rows {
		articleIDs = append(articleIDs, r.ID)
		if !seenAuthor[r.AuthorID] {
			seenAuthor[r.AuthorID] = true
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}

	query, args, err := psql.Select("article_id", "user_id").
		From("favorites").
		Where(squirrel.Eq{"article_id": articleIDs}).
		ToSql()
	if err != nil {
		return nil, err
	}
	var favs []struct {
		ArticleID string `db:"article_id"`
		UserID    string `db:"user_id"`
	}
	if err := sqlx.SelectContext(ctx, q, &favs, query, args...); err != nil {
		return nil, mapError("load favorites", err)
	}

	query, args, err = psql.Select("followed_id", "follower_id").
		From("follows").
		Where(squirrel.Eq{"followed_id": authorIDs}).
		ToSql()
	if err != nil {
		return nil, err
	}
	var follows []struct {
		FollowedID string `db:"followed_id"`
		FollowerID string `db:"follower_id"`
	}
	if err := sqlx.SelectContext(ctx, q, &follows, query, args...); err != nil {
		return nil, mapError("load followers", err)
	}

	favoritedBy := make(map[string][]string, len(rows))
	for _, f := range favs {
		favoritedBy[f.ArticleID] = append(favoritedBy[f.ArticleID], f.UserID)
	}
	followers := make(map[string][]string, len(authorIDs))
	for _, f := range follows {
		followers[f.FollowedID] = append(followers[f.FollowedID], f.FollowerID)
	}

	for _, r := range rows {
		tags := []string(r.TagList)
		if tags == nil {
			tags = []string{}
		}
		records = append(records, models.ArticleRecord{
			Article: r.Article,
			Author: models.User{
				ID:       r.AuthorID,
				Username: r.AuthorUsername,
				Bio:      r.AuthorBio,
				Image:    r.AuthorImage,
			},
			Tags:            tags,
			FavoritedBy:     favoritedBy[r.ID],
			AuthorFollowers: followers[r.AuthorID],
		})
	}
	return records, nil
}

// ListTags returns every tag name.
func (s *PostgresStore) ListTags(ctx context.Context) ([]string, error) {
	query, args, err := psql.Select("name").From("tags").OrderBy("name").ToSql()
	if err != nil {
		return nil, err
	}
	tags := []string{}
	if err := s.db.SelectContext(ctx, &tags, query, args...); err != nil {
		return nil, mapError("list tags", err)
	}
	return tags, nil
}
