package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Audit actions.
const (
	AuditUserRegistered   = "user.registered"
	AuditUserUpdated      = "user.updated"
	AuditArticleCreated   = "article.created"
	AuditArticleFavorited = "article.favorited"
	AuditArticleUnfavored = "article.unfavorited"
	AuditUserFollowed     = "user.followed"
)

// AuditEvent is a single write recorded in MongoDB.
type AuditEvent struct {
	ID        primitive.ObjectID `json:"id"         bson:"_id,omitempty"`
	Action    string             `json:"action"     bson:"action"`
	ActorID   string             `json:"actor_id"   bson:"actor_id"`
	Subject   string             `json:"subject"    bson:"subject"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
