// controllers/message_controller.go
package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/HSouheill/snapgram_backend/config"
	"github.com/HSouheill/snapgram_backend/middleware"
	"github.com/HSouheill/snapgram_backend/models"
	"github.com/HSouheill/snapgram_backend/utils"
)

// MessageController contains pairwise conversation logic
type MessageController struct {
	DB      *mongo.Client
	metrics *middleware.Metrics
}

// NewMessageController creates a new message controller
func NewMessageController(db *mongo.Client, metrics *middleware.Metrics) *MessageController {
	return &MessageController{DB: db, metrics: metrics}
}

// conversationFilter matches the pair regardless of direction
func conversationFilter(a, b primitive.ObjectID) bson.M {
	return bson.M{"participants": bson.M{"$all": []primitive.ObjectID{a, b}}}
}

// SendMessage handler appends a message to the conversation between the
// caller and the recipient, creating the conversation on first contact
func (mc *MessageController) SendMessage(c echo.Context) error {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	senderID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	receiverID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid recipient ID",
		})
	}

	req := new(models.SendMessageRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Message text is required",
		})
	}

	// The recipient must exist
	userColl := config.GetCollection(mc.DB, "users")
	if err := userColl.FindOne(ctx, bson.M{"_id": receiverID}).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Recipient not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find recipient",
		})
	}

	convColl := config.GetCollection(mc.DB, "conversations")
	now := time.Now()

	var conversation models.Conversation
	err = convColl.FindOne(ctx, conversationFilter(senderID, receiverID)).Decode(&conversation)
	if err == mongo.ErrNoDocuments {
		conversation = models.Conversation{
			ID:           primitive.NewObjectID(),
			Participants: []primitive.ObjectID{senderID, receiverID},
			Messages:     []primitive.ObjectID{},
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if _, err := convColl.InsertOne(ctx, conversation); err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to create conversation",
			})
		}
	} else if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find conversation",
		})
	}

	message := models.Message{
		ID:         primitive.NewObjectID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    utils.SanitizeInput(req.Message),
		CreatedAt:  now,
	}

	msgColl := config.GetCollection(mc.DB, "messages")
	if _, err := msgColl.InsertOne(ctx, message); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to send message",
		})
	}

	update := bson.M{
		"$push": bson.M{"messages": message.ID},
		"$set":  bson.M{"updatedAt": now},
	}
	if _, err := convColl.UpdateOne(ctx, bson.M{"_id": conversation.ID}, update); err != nil {
		c.Logger().Errorf("Failed to attach message %s to conversation %s: %v",
			message.ID.Hex(), conversation.ID.Hex(), err)
	}

	mc.metrics.MessagesSent.Inc()

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Message sent",
		Data:    message,
	})
}

// GetMessages handler returns the message history between the caller and
// the other user, oldest first. No conversation yet means an empty list,
// not an error.
func (mc *MessageController) GetMessages(c echo.Context) error {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	otherID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	convColl := config.GetCollection(mc.DB, "conversations")

	var conversation models.Conversation
	err = convColl.FindOne(ctx, conversationFilter(userID, otherID)).Decode(&conversation)
	if err == mongo.ErrNoDocuments {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Messages retrieved successfully",
			Data:    []models.Message{},
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find conversation",
		})
	}

	messages := []models.Message{}
	if len(conversation.Messages) > 0 {
		msgColl := config.GetCollection(mc.DB, "messages")
		cursor, err := msgColl.Find(ctx, bson.M{"_id": bson.M{"$in": conversation.Messages}})
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to find messages",
			})
		}
		fetched := map[primitive.ObjectID]models.Message{}
		for cursor.Next(ctx) {
			var message models.Message
			if err := cursor.Decode(&message); err != nil {
				continue
			}
			fetched[message.ID] = message
		}
		cursor.Close(ctx)

		// Preserve the conversation's append order
		for _, id := range conversation.Messages {
			if message, ok := fetched[id]; ok {
				messages = append(messages, message)
			}
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Messages retrieved successfully",
		Data:    messages,
	})
}
