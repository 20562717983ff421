package articles

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ayush/conduit/backend/internal/models"
)

type articleRequest struct {
	models.CreateArticleRequest
}

func (req *articleRequest) Bind(r *http.Request) error {
	a := req.Article
	if a == nil {
		return errors.New("missing article")
	}
	a.Title = strings.TrimSpace(a.Title)
	a.Description = strings.TrimSpace(a.Description)
	if a.Title == "" || a.Description == "" || strings.TrimSpace(a.Body) == "" {
		return errors.New("title, description and body are required")
	}
	return nil
}

func (req *articleRequest) input() CreateInput {
	return CreateInput{
		Title:       req.Article.Title,
		Description: req.Article.Description,
		Body:        req.Article.Body,
		Tags:        req.Article.TagList,
	}
}

// ArticleResponse is the {article} envelope.
type ArticleResponse struct {
	Article models.ArticleView `json:"article"`
}

func (*ArticleResponse) Render(w http.ResponseWriter, r *http.Request) error { return nil }

// ArticleListResponse is one page of articles with the total match count.
type ArticleListResponse struct {
	Articles      []models.ArticleView `json:"articles"`
	ArticlesCount int                  `json:"articlesCount"`
}

func (rd *ArticleListResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if rd.Articles == nil {
		rd.Articles = []models.ArticleView{}
	}
	return nil
}

// TagListResponse is the {tags} envelope.
type TagListResponse struct {
	Tags []string `json:"tags"`
}

func (rd *TagListResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if rd.Tags == nil {
		rd.Tags = []string{}
	}
	return nil
}
