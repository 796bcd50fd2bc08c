// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User model
type User struct {
	ID             primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Username       string               `json:"username" bson:"username"`
	Email          string               `json:"email" bson:"email"`
	Password       string               `json:"password,omitempty" bson:"password"`
	Bio            string               `json:"bio,omitempty" bson:"bio,omitempty"`
	Gender         string               `json:"gender,omitempty" bson:"gender,omitempty"`
	ProfilePicture string               `json:"profilePicture,omitempty" bson:"profilePicture,omitempty"`
	Posts          []primitive.ObjectID `json:"posts" bson:"posts"`
	Followers      []primitive.ObjectID `json:"followers" bson:"followers"`
	Following      []primitive.ObjectID `json:"following" bson:"following"`
	Bookmarks      []primitive.ObjectID `json:"bookmarks" bson:"bookmarks"`
	CreatedAt      time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// AuthorInfo is the public-safe projection of a user embedded in
// post/comment payloads. No credential fields ever appear here.
type AuthorInfo struct {
	ID             primitive.ObjectID `json:"id" bson:"_id"`
	Username       string             `json:"username" bson:"username"`
	ProfilePicture string             `json:"profilePicture,omitempty" bson:"profilePicture,omitempty"`
}

// RegisterRequest is the body of POST /user/register
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the body of POST /user/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginUser is the denormalized view of a user returned on login: the
// post references are resolved to full documents (author-mismatched
// entries nulled out) and credentials are stripped.
type LoginUser struct {
	ID             primitive.ObjectID   `json:"id"`
	Username       string               `json:"username"`
	Email          string               `json:"email"`
	Bio            string               `json:"bio,omitempty"`
	ProfilePicture string               `json:"profilePicture,omitempty"`
	Followers      []primitive.ObjectID `json:"followers"`
	Following      []primitive.ObjectID `json:"following"`
	Posts          []*Post              `json:"posts"`
}

// ProfileView is the payload of GET /user/:id/profile, with post and
// bookmark references resolved.
type ProfileView struct {
	User      User   `json:"user"`
	Posts     []Post `json:"posts"`
	Bookmarks []Post `json:"bookmarks"`
}

// Response is the shared envelope every handler responds with.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
