package articles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ayush/conduit/backend/internal/logging"
	"github.com/ayush/conduit/backend/internal/models"
	"github.com/ayush/conduit/backend/internal/store"
)

// slugRetries is how many fresh suffixes are tried after a slug collision.
const slugRetries = 3

// ArticleStore defines the article persistence the service needs.
type ArticleStore interface {
	ListArticles(ctx context.Context, f models.ArticleFilter) ([]models.ArticleRecord, int, error)
	GetArticleBySlug(ctx context.Context, slug string) (*models.ArticleRecord, error)
	CreateArticle(ctx context.Context, na models.NewArticle) (*models.ArticleRecord, error)
	Favorite(ctx context.Context, userID, articleID string) error
	Unfavorite(ctx context.Context, userID, articleID string) error
	ListTags(ctx context.Context) ([]string, error)
}

// AuditLog records write events.
type AuditLog interface {
	Record(ctx context.Context, ev models.AuditEvent) error
}

// Service composes article queries and annotates the results for a viewer.
type Service struct {
	store  ArticleStore
	audit  AuditLog
	suffix func() string
}

func NewService(s ArticleStore, audit AuditLog) *Service {
	return &Service{store: s, audit: audit, suffix: randomSuffix}
}

// CreateInput is a validated article submission.
type CreateInput struct {
	Title       string
	Description string
	Body        string
	Tags        []string
}

// List returns one page of articles matching f, annotated for viewerID, and
// the total number of matches.
func (s *Service) List(ctx context.Context, f models.ArticleFilter, viewerID string) ([]models.ArticleView, int, error) {
	recs, total, err := s.store.ListArticles(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return AnnotateAll(recs, viewerID), total, nil
}

// Create stores a new article by authorID. The returned view is as the
// author sees it right after creation: not favorited, no favorites, and not
// following themselves.
func (s *Service) Create(ctx context.Context, authorID string, in CreateInput) (*models.ArticleView, error) {
	na := models.NewArticle{
		Title:       in.Title,
		Description: in.Description,
		Body:        in.Body,
		AuthorID:    authorID,
		Tags:        NormalizeTags(in.Tags),
	}

	var (
		rec *models.ArticleRecord
		err error
	)
	for attempt := 0; attempt <= slugRetries; attempt++ {
		na.Slug = Slugify(in.Title, s.suffix())
		rec, err = s.store.CreateArticle(ctx, na)
		if !errors.Is(err, store.ErrConflict) {
			break
		}
		logging.FromContext(ctx).Infow("slug collision, retrying", "slug", na.Slug, "attempt", attempt+1)
	}
	if err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}

	s.record(ctx, models.AuditEvent{Action: models.AuditArticleCreated, ActorID: authorID, Subject: rec.Slug})

	view := Annotate(*rec, "")
	return &view, nil
}

// Favorite marks the article as favorited by userID and returns it reloaded.
func (s *Service) Favorite(ctx context.Context, rec *models.ArticleRecord, userID string) (*models.ArticleView, error) {
	if err := s.store.Favorite(ctx, userID, rec.ID); err != nil {
		return nil, err
	}
	s.record(ctx, models.AuditEvent{Action: models.AuditArticleFavorited, ActorID: userID, Subject: rec.Slug})
	return s.reload(ctx, rec.Slug, userID)
}

func (s *Service) Unfavorite(ctx context.Context, rec *models.ArticleRecord, userID string) (*models.ArticleView, error) {
	if err := s.store.Unfavorite(ctx, userID, rec.ID); err != nil {
		return nil, err
	}
	s.record(ctx, models.AuditEvent{Action: models.AuditArticleUnfavored, ActorID: userID, Subject: rec.Slug})
	return s.reload(ctx, rec.Slug, userID)
}

// Load returns the stored article with its relations.
func (s *Service) Load(ctx context.Context, slug string) (*models.ArticleRecord, error) {
	return s.store.GetArticleBySlug(ctx, slug)
}

func (s *Service) Tags(ctx context.Context) ([]string, error) {
	return s.store.ListTags(ctx)
}

func (s *Service) reload(ctx context.Context, slug, viewerID string) (*models.ArticleView, error) {
	rec, err := s.store.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	view := Annotate(*rec, viewerID)
	return &view, nil
}

func (s *Service) record(ctx context.Context, ev models.AuditEvent) {
	if err := s.audit.Record(ctx, ev); err != nil {
		logging.FromContext(ctx).Warnw("audit record failed", "action", ev.Action, "error", err)
	}
}

// NormalizeTags trims names, drops blanks and removes duplicates while
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
