// Package seed loads the demo user and articles.
package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/conduit/backend/internal/models"
	"github.com/ayush/conduit/backend/internal/store"
)

// Store is the persistence the seed needs.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	GetArticleBySlug(ctx context.Context, slug string) (*models.ArticleRecord, error)
	CreateArticle(ctx context.Context, na models.NewArticle) (*models.ArticleRecord, error)
}

var (
	demoBio   = "I work at statefarm"
	demoImage = "https://i.stack.imgur.com/xHWG8.jpg"
	demoTags  = []string{"dragons", "training"}
)

var demoArticles = []models.NewArticle{
	{
		Slug:        "how-to-train-your-dragon",
		Title:       "How to train your dragon",
		Description: "Ever wonder how?",
		Body:        "Very carefully.",
	},
	{
		Slug:        "how-to-train-your-dragon-2",
		Title:       "How to train your dragon 2",
		Description: "So toothless...",
		Body:        "It takes a lot of patience",
	},
}

// Run creates the demo data. Rows that already exist are left alone, so it
// can run repeatedly.
func Run(ctx context.Context, s Store, log *zap.SugaredLogger) error {
	user, err := s.GetUserByEmail(ctx, "jake@jake.jake")
	if errors.Is(err, store.ErrNotFound) {
		hash, herr := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if herr != nil {
			return fmt.Errorf("hash password: %w", herr)
		}
		if user, err = s.CreateUser(ctx, "jake", "jake@jake.jake", string(hash)); err != nil {
			return fmt.Errorf("create demo user: %w", err)
		}
		if user, err = s.UpdateUser(ctx, user.ID, models.UserUpdate{Bio: &demoBio, Image: &demoImage}); err != nil {
			return fmt.Errorf("set demo profile: %w", err)
		}
		log.Infow("created demo user", "username", user.Username)
	} else if err != nil {
		return fmt.Errorf("load demo user: %w", err)
	}

	for _, na := range demoArticles {
		_, err := s.GetArticleBySlug(ctx, na.Slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("load %s: %w", na.Slug, err)
		}

		na.AuthorID = user.ID
		na.Tags = demoTags
		if _, err := s.CreateArticle(ctx, na); err != nil {
			return fmt.Errorf("create %s: %w", na.Slug, err)
		}
		log.Infow("created demo article", "slug", na.Slug)
	}

	log.Info("database has been seeded")
	return nil
}
