package articles

import (
	"slices"

	"github.com/ayush/conduit/backend/internal/models"
)

// Annotate projects rec for viewerID. An empty viewerID is anonymous and
// sees favorited and following as false.
func Annotate(rec models.ArticleRecord, viewerID string) models.ArticleView {
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}

	return models.ArticleView{
		ID:             rec.ID,
		Slug:           rec.Slug,
		Title:          rec.Title,
		Description:    rec.Description,
		Body:           rec.Body,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
		TagList:        tags,
		Favorited:      viewerID != "" && slices.Contains(rec.FavoritedBy, viewerID),
		FavoritesCount: len(rec.FavoritedBy),
		Author: models.Profile{
			Username:  rec.Author.Username,
			Bio:       rec.Author.Bio,
			Image:     rec.Author.Image,
			Following: viewerID != "" && slices.Contains(rec.AuthorFollowers, viewerID),
		},
	}
}

func AnnotateAll(recs []models.ArticleRecord, viewerID string) []models.ArticleView {
	views := make([]models.ArticleView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, Annotate(rec, viewerID))
	}
	return views
}
