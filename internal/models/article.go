package models

import "time"

// Article is a row of the articles table joined with its author.
type Article struct {
	ID          string    `db:"id"`
	Slug        string    `db:"slug"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Body        string    `db:"body"`
	AuthorID    string    `db:"author_id"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// ArticleRecord is an article with the relations needed to annotate it for a
// viewer: its author, tag names, the ids of users who favorited it, and the
// ids of users following its author.
type ArticleRecord struct {
	Article
	Author          User
	Tags            []string
	FavoritedBy     []string
	AuthorFollowers []string
}

// ArticleFilter restricts an article listing. Empty fields do not filter.
type ArticleFilter struct {
	Tag         string
	Author      string
	FavoritedBy string
	// FollowedBy is a user id; only articles by authors they follow match.
	FollowedBy string

	Limit  uint64
	Offset uint64
}

// NewArticle is the input for creating an article.
type NewArticle struct {
	Slug        string
	Title       string
	Description string
	Body        string
	AuthorID    string
	Tags        []string
}

// ArticleView is the wire representation of an article for one viewer.
type ArticleView struct {
	ID             string    `json:"id"`
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	TagList        []string  `json:"tagList"`
	Favorited      bool      `json:"favorited"`
	FavoritesCount int       `json:"favoritesCount"`
	Author         Profile   `json:"author"`
}

// CreateArticleRequest is the JSON body for POST /articles.
type CreateArticleRequest struct {
	Article *struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Body        string   `json:"body"`
		TagList     []string `json:"tagList"`
	} `json:"article"`
}
