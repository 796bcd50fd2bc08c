// models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is a persisted pairing of exactly two users plus the
// ordered list of messages exchanged between them. Participants are
// matched as an unordered pair: A->B and B->A resolve to the same
// conversation.
type Conversation struct {
	ID           primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Participants []primitive.ObjectID `json:"participants" bson:"participants"`
	Messages     []primitive.ObjectID `json:"messages" bson:"messages"`
	CreatedAt    time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// Message is immutable once created.
type Message struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	SenderID   primitive.ObjectID `json:"senderId" bson:"senderId"`
	ReceiverID primitive.ObjectID `json:"receiverId" bson:"receiverId"`
	Message    string             `json:"message" bson:"message"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}

// SendMessageRequest is the body of POST /message/:id
type SendMessageRequest struct {
	Message string `json:"message" validate:"required"`
}
