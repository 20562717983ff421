package store

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/ayush/conduit/backend/internal/models"
)

var userColumns = []string{
	"id", "username", "email", "password_hash", "bio", "image", "created_at", "updated_at",
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	query, args, err := psql.Insert("users").
		Columns("username", "email", "password_hash").
		Values(username, email, passwordHash).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}

	var u models.User
	if err := s.db.GetContext(ctx, &u, query, args...); err != nil {
		return nil, mapError("create user", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "get user by email", squirrel.Eq{"email": email})
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "get user by id", squirrel.Eq{"id": id})
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, "get user by username", squirrel.Eq{"username": username})
}

func (s *PostgresStore) getUser(ctx context.Context, op string, where squirrel.Eq) (*models.User, error) {
	query, args, err := psql.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, err
	}

	var u models.User
	if err := s.db.GetContext(ctx, &u, query, args...); err != nil {
		return nil, mapError(op, err)
	}
	return &u, nil
}

// UpdateUser applies the non-nil fields of upd and returns the updated row.
func (s *PostgresStore) UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	b := psql.Update("users").Set("updated_at", squirrel.Expr("NOW()"))
	if upd.Email != nil {
		b = b.Set("email", *upd.Email)
	}
	if upd.Username != nil {
		b = b.Set("username", *upd.Username)
	}
	if upd.PasswordHash != nil {
		b = b.Set("password_hash", *upd.PasswordHash)
	}
	if upd.Bio != nil {
		b = b.Set("bio", *upd.Bio)
	}
	if upd.Image != nil {
		b = b.Set("image", *upd.Image)
	}

	query, args, err := b.Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, err
	}

	var u models.User
	if err := s.db.GetContext(ctx, &u, query, args...); err != nil {
		return nil, mapError("update user", err)
	}
	return &u, nil
}
