// controllers/comment_controller.go
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
	"github.com/HSouheill/snapgram_backend/models"
	"github.com/HSouheill/snapgram_backend/utils"
)

// CommentController contains comment and reply logic
type CommentController struct {
	DB *mongo.Client
}

// NewCommentController creates a new comment controller
func NewCommentController(db *mongo.Client) *CommentController {
	return &CommentController{DB: db}
}

// AddComment handler creates a top-level comment on a post
func (cc *CommentController) AddComment(c echo.Context) error {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	authorID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid post ID",
		})
	}

	req := new(models.CommentRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Text is required",
		})
	}

	postColl := config.GetCollection(cc.DB, "posts")
	if err := postColl.FindOne(ctx, bson.M{"_id": postID}).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Post not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find post",
		})
	}

	comment := models.Comment{
		ID:        primitive.NewObjectID(),
		Text:      utils.SanitizeInput(req.Text),
		Author:    authorID,
		Post:      postID,
		Replies:   []primitive.ObjectID{},
		CreatedAt: time.Now(),
	}

	commentColl := config.GetCollection(cc.DB, "comments")
	if _, err := commentColl.InsertOne(ctx, comment); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create comment",
		})
	}

	// Attach the comment to the post's top-level list
	update := bson.M{
		"$push": bson.M{"comments": comment.ID},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	if _, err := postColl.UpdateOne(ctx, bson.M{"_id": postID}, update); err != nil {
		c.Logger().Errorf("Failed to attach comment %s to post %s: %v",
			comment.ID.Hex(), postID.Hex(), err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Comment added",
		Data:    comment,
	})
}

// AddReply handler creates a reply to an existing comment. Replies attach
// only to the parent comment's replies list; the post's top-level comment
// list is left untouched.
func (cc *CommentController) AddReply(c echo.Context) error {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	authorID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	parentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid comment ID",
		})
	}

	req := new(models.ReplyRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Text and post ID are required",
		})
	}

	postID, err := primitive.ObjectIDFromHex(req.PostID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid post ID",
		})
	}

	commentColl := config.GetCollection(cc.DB, "comments")

	var parent models.Comment
	err = commentColl.FindOne(ctx, bson.M{"_id": parentID}).Decode(&parent)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Comment not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find comment",
		})
	}

	reply := models.Comment{
		ID:        primitive.NewObjectID(),
		Text:      utils.SanitizeInput(req.Text),
		Author:    authorID,
		Post:      postID,
		Parent:    &parentID,
		Replies:   []primitive.ObjectID{},
		CreatedAt: time.Now(),
	}

	if _, err := commentColl.InsertOne(ctx, reply); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create reply",
		})
	}

	update := bson.M{"$push": bson.M{"replies": reply.ID}}
	if _, err := commentColl.UpdateOne(ctx, bson.M{"_id": parentID}, update); err != nil {
		c.Logger().Errorf("Failed to attach reply %s to comment %s: %v",
			reply.ID.Hex(), parentID.Hex(), err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Reply added",
		Data:    reply,
	})
}

// GetComments handler returns every comment of a post with authors
// resolved. Replies are included since they carry the post reference;
// clients distinguish them by the parent field.
func (cc *CommentController) GetComments(c echo.Context) error {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid post ID",
		})
	}

	commentColl := config.GetCollection(cc.DB, "comments")
	cursor, err := commentColl.Find(ctx, bson.M{"post": postID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find comments",
		})
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode comments",
		})
	}

	authorIDs := make([]primitive.ObjectID, 0, len(comments))
	for _, comment := range comments {
		authorIDs = append(authorIDs, comment.Author)
	}
	authors, err := fetchAuthorInfos(ctx, cc.DB, authorIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve comment authors",
		})
	}

	resolved := make([]models.ResolvedComment, 0, len(comments))
	for _, comment := range comments {
		resolved = append(resolved, resolveComment(comment, authors))
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Comments retrieved successfully",
		Data:    resolved,
	})
}

// DeleteComment handler removes a comment. Only the author may delete.
// Deleting a top-level comment detaches it from the post and removes its
// direct replies; deleting a reply detaches it from its parent.
func (cc *CommentController) DeleteComment(c echo.Context) error {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actingUserID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	commentID, err := primitive.ObjectIDFromHex(c.Param("commentId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid comment ID",
		})
	}

	commentColl := config.GetCollection(cc.DB, "comments")

	var comment models.Comment
	err = commentColl.FindOne(ctx, bson.M{"_id": commentID}).Decode(&comment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Comment not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find comment",
		})
	}

	if comment.Author != actingUserID {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "You are not authorized to delete this comment",
		})
	}

	if _, err := commentColl.DeleteOne(ctx, bson.M{"_id": commentID}); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete comment",
		})
	}

	if comment.Parent != nil {
		// Reply: detach from the parent's replies list
		update := bson.M{"$pull": bson.M{"replies": commentID}}
		if _, err := commentColl.UpdateOne(ctx, bson.M{"_id": *comment.Parent}, update); err != nil {
			c.Logger().Errorf("Failed to detach reply %s from comment %s: %v",
				commentID.Hex(), comment.Parent.Hex(), err)
		}
	} else {
		// Top-level comment: detach from the post and drop its replies
		postColl := config.GetCollection(cc.DB, "posts")
		update := bson.M{"$pull": bson.M{"comments": commentID}}
		if _, err := postColl.UpdateOne(ctx, bson.M{"_id": comment.Post}, update); err != nil {
			c.Logger().Errorf("Failed to detach comment %s from post %s: %v",
				commentID.Hex(), comment.Post.Hex(), err)
		}
		if len(comment.Replies) > 0 {
			if _, err := commentColl.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": comment.Replies}}); err != nil {
				c.Logger().Errorf("Failed to delete replies of comment %s: %v", commentID.Hex(), err)
			}
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Comment deleted successfully",
	})
}
