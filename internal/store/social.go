package store

import (
	"context"

	"github.com/Masterminds/squirrel"
)

// Favorite records that userID favorited articleID. Repeating it is a no-op.
func (s *PostgresStore) Favorite(ctx context.Context, userID, articleID string) error {
	query, args, err := psql.Insert("favorites").
		Columns("user_id", "article_id").
		Values(userID, articleID).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return mapError("favorite", err)
}

func (s *PostgresStore) Unfavorite(ctx context.Context, userID, articleID string) error {
	query, args, err := psql.Delete("favorites").
		Where(squirrel.Eq{"user_id": userID, "article_id": articleID}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return mapError("unfavorite", err)
}

// Follow records that followerID follows followedID. Repeating it is a no-op.
func (s *PostgresStore) Follow(ctx context.Context, followerID, followedID string) error {
	query, args, err := psql.Insert("follows").
		Columns("follower_id", "followed_id").
		Values(followerID, followedID).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return mapError("follow", err)
}

func (s *PostgresStore) Unfollow(ctx context.Context, followerID, followedID string) error {
	query, args, err := psql.Delete("follows").
		Where(squirrel.Eq{"follower_id": followerID, "followed_id": followedID}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return mapError("unfollow", err)
}

func (s *PostgresStore) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	sub := psql.Select("1").From("follows").
		Where(squirrel.Eq{"follower_id": followerID, "followed_id": followedID})
	query, args, err := psql.Select().Column(squirrel.Expr("EXISTS(?)", sub)).ToSql()
	if err != nil {
		return false, err
	}

	var ok bool
	if err := s.db.GetContext(ctx, &ok, query, args...); err != nil {
		return false, mapError("is following", err)
	}
	return ok, nil
}
