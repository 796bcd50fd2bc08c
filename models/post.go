// models/post.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post model for image posts
type Post struct {
	ID        primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Caption   string               `json:"caption,omitempty" bson:"caption,omitempty"`
	Image     string               `json:"image" bson:"image"`
	Author    primitive.ObjectID   `json:"author" bson:"author"`
	Likes     []primitive.ObjectID `json:"likes" bson:"likes"`
	Comments  []primitive.ObjectID `json:"comments" bson:"comments"`
	CreatedAt time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// Comment model. A reply is a comment whose Parent is set; replies hang
// off their parent's Replies list and are never appended to the post's
// top-level comment list.
type Comment struct {
	ID        primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Text      string               `json:"text" bson:"text"`
	Author    primitive.ObjectID   `json:"author" bson:"author"`
	Post      primitive.ObjectID   `json:"post" bson:"post"`
	Parent    *primitive.ObjectID  `json:"parent,omitempty" bson:"parent,omitempty"`
	Replies   []primitive.ObjectID `json:"replies" bson:"replies"`
	CreatedAt time.Time            `json:"createdAt" bson:"createdAt"`
}

// ResolvedComment is a comment with its author reference replaced by the
// public projection.
type ResolvedComment struct {
	ID        primitive.ObjectID   `json:"id"`
	Text      string               `json:"text"`
	Author    *AuthorInfo          `json:"author,omitempty"`
	Post      primitive.ObjectID   `json:"post"`
	Parent    *primitive.ObjectID  `json:"parent,omitempty"`
	Replies   []primitive.ObjectID `json:"replies"`
	CreatedAt time.Time            `json:"createdAt"`
}

// ResolvedPost is the read model for feed endpoints: author and comments
// resolved to public projections.
type ResolvedPost struct {
	ID        primitive.ObjectID   `json:"id"`
	Caption   string               `json:"caption,omitempty"`
	Image     string               `json:"image"`
	Author    *AuthorInfo          `json:"author,omitempty"`
	Likes     []primitive.ObjectID `json:"likes"`
	Comments  []ResolvedComment    `json:"comments"`
	CreatedAt time.Time            `json:"createdAt"`
}

// CommentRequest is the body of POST /post/:id/comment
type CommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// ReplyRequest is the body of POST /post/comment/:id/reply
type ReplyRequest struct {
	Text   string `json:"text" validate:"required"`
	PostID string `json:"postId" validate:"required"`
}
