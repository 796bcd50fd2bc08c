// controllers/post_controller.go
package controllers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/HSouheill/snapgram_backend/config"
	"github.com/HSouheill/snapgram_backend/middleware"
	"github.com/HSouheill/snapgram_backend/models"
	"github.com/HSouheill/snapgram_backend/repositories"
	"github.com/HSouheill/snapgram_backend/services"
	"github.com/HSouheill/snapgram_backend/utils"
)

// PostController contains content logic: posts, likes, bookmarks
type PostController struct {
	DB       *mongo.Client
	userRepo *repositories.UserRepository
	assets   *services.AssetService
	metrics  *middleware.Metrics
}

// NewPostController creates a new post controller
func NewPostController(db *mongo.Client, userRepo *repositories.UserRepository, assets *services.AssetService, metrics *middleware.Metrics) *PostController {
	return &PostController{DB: db, userRepo: userRepo, assets: assets, metrics: metrics}
}

// AddPost handler creates a new post from a multipart form. The image is
// mandatory; it is bounded to 800x800 and re-encoded before upload.
func (pc *PostController) AddPost(c echo.Context) error {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	authorID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Image file is required",
		})
	}
	if !utils.IsValidImageFile(fileHeader) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Unsupported image format",
		})
	}
	if err := utils.ValidateFile(fileHeader.Filename, fileHeader.Size); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to read uploaded file",
		})
	}
	data, err := io.ReadAll(src)
	src.Close()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to read uploaded file",
		})
	}

	processed, err := utils.ProcessPostImage(data)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid image file",
		})
	}

	imageURL, err := pc.assets.Upload(ctx, processed, "image/jpeg", "posts")
	if err != nil {
		c.Logger().Errorf("Post image upload failed: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to upload image",
		})
	}

	now := time.Now()
	post := models.Post{
		ID:        primitive.NewObjectID(),
		Caption:   utils.SanitizeInput(c.FormValue("caption")),
		Image:     imageURL,
		Author:    authorID,
		Likes:     []primitive.ObjectID{},
		Comments:  []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	collection := config.GetCollection(pc.DB, "posts")
	if _, err := collection.InsertOne(ctx, post); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create post",
		})
	}

	// Append the post to the author's owned list
	if err := pc.userRepo.AddPostRef(ctx, authorID, post.ID); err != nil {
		c.Logger().Errorf("Failed to append post %s to author %s: %v",
			post.ID.Hex(), authorID.Hex(), err)
	}

	pc.metrics.PostsCreated.Inc()

	resolved, err := pc.resolvePosts(ctx, []models.Post{post})
	if err != nil || len(resolved) == 0 {
		return c.JSON(http.StatusCreated, models.Response{
			Status:  http.StatusCreated,
			Message: "New post added",
			Data:    post,
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "New post added",
		Data:    resolved[0],
	})
}

// GetAllPosts handler returns every post, newest first, with authors and
// comments resolved
func (pc *PostController) GetAllPosts(c echo.Context) error {
	return pc.listPosts(c, bson.M{})
}

// GetUserPosts handler returns the caller's posts, newest first
func (pc *PostController) GetUserPosts(c echo.Context) error {
	authorID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}
	return pc.listPosts(c, bson.M{"author": authorID})
}

func (pc *PostController) listPosts(c echo.Context, filter bson.M) error {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	collection := config.GetCollection(pc.DB, "posts")
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := collection.Find(ctx, filter, findOptions)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find posts",
		})
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode posts",
		})
	}

	resolved, err := pc.resolvePosts(ctx, posts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve posts",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Posts retrieved successfully",
		Data:    resolved,
	})
}

// resolvePosts replaces author and comment references with public
// projections
func (pc *PostController) resolvePosts(ctx context.Context, posts []models.Post) ([]models.ResolvedPost, error) {
	resolved := make([]models.ResolvedPost, 0, len(posts))
	if len(posts) == 0 {
		return resolved, nil
	}

	// Collect referenced authors and comments across all posts
	authorIDs := make([]primitive.ObjectID, 0, len(posts))
	commentIDs := make([]primitive.ObjectID, 0)
	for _, post := range posts {
		authorIDs = append(authorIDs, post.Author)
		commentIDs = append(commentIDs, post.Comments...)
	}

	comments := map[primitive.ObjectID]models.Comment{}
	if len(commentIDs) > 0 {
		cursor, err := config.GetCollection(pc.DB, "comments").Find(ctx, bson.M{"_id": bson.M{"$in": commentIDs}})
		if err != nil {
			return nil, err
		}
		for cursor.Next(ctx) {
			var comment models.Comment
			if err := cursor.Decode(&comment); err != nil {
				continue
			}
			comments[comment.ID] = comment
			authorIDs = append(authorIDs, comment.Author)
		}
		cursor.Close(ctx)
	}

	authors, err := fetchAuthorInfos(ctx, pc.DB, authorIDs)
	if err != nil {
		return nil, err
	}

	for _, post := range posts {
		rp := models.ResolvedPost{
			ID:        post.ID,
			Caption:   post.Caption,
			Image:     post.Image,
			Likes:     post.Likes,
			Comments:  []models.ResolvedComment{},
			CreatedAt: post.CreatedAt,
		}
		if author, ok := authors[post.Author]; ok {
			a := author
			rp.Author = &a
		}
		for _, commentID := range post.Comments {
			comment, ok := comments[commentID]
			if !ok {
				continue
			}
			rp.Comments = append(rp.Comments, resolveComment(comment, authors))
		}
		resolved = append(resolved, rp)
	}
	return resolved, nil
}

// fetchAuthorInfos loads the public projection for a set of user IDs
func fetchAuthorInfos(ctx context.Context, db *mongo.Client, ids []primitive.ObjectID) (map[primitive.ObjectID]models.AuthorInfo, error) {
	authors := map[primitive.ObjectID]models.AuthorInfo{}
	if len(ids) == 0 {
		return authors, nil
	}

	findOptions := options.Find().SetProjection(bson.M{"username": 1, "profilePicture": 1})
	cursor, err := config.GetCollection(db, "users").Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var author models.AuthorInfo
		if err := cursor.Decode(&author); err != nil {
			continue
		}
		authors[author.ID] = author
	}
	return authors, nil
}

func resolveComment(comment models.Comment, authors map[primitive.ObjectID]models.AuthorInfo) models.ResolvedComment {
	rc := models.ResolvedComment{
		ID:        comment.ID,
		Text:      comment.Text,
		Post:      comment.Post,
		Parent:    comment.Parent,
		Replies:   comment.Replies,
		CreatedAt: comment.CreatedAt,
	}
	if rc.Replies == nil {
		rc.Replies = []primitive.ObjectID{}
	}
	if author, ok := authors[comment.Author]; ok {
		a := author
		rc.Author = &a
	}
	return rc
}

// LikePost handler adds the caller to the post's like set. Liking an
// already-liked post is a no-op success.
func (pc *PostController) LikePost(c echo.Context) error {
	return pc.updateLikes(c, "$addToSet", "Post liked")
}

// DislikePost handler removes the caller from the post's like set
func (pc *PostController) DislikePost(c echo.Context) error {
	return pc.updateLikes(c, "$pull", "Post disliked")
}

func (pc *PostController) updateLikes(c echo.Context, op, message string) error {
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

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid post ID",
		})
	}

	collection := config.GetCollection(pc.DB, "posts")
	update := bson.M{
		op:     bson.M{"likes": userID},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	result, err := collection.UpdateOne(ctx, bson.M{"_id": postID}, update)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update likes",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Post not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: message,
	})
}

// BookmarkPost handler toggles the post's membership in the caller's
// bookmark set and reports which branch occurred
func (pc *PostController) BookmarkPost(c echo.Context) error {
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

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid post ID",
		})
	}

	// The post must exist to be bookmarked
	postColl := config.GetCollection(pc.DB, "posts")
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

	user, err := pc.userRepo.FindByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find user",
		})
	}

	bookmarked := false
	for _, id := range user.Bookmarks {
		if id == postID {
			bookmarked = true
			break
		}
	}

	userColl := config.GetCollection(pc.DB, "users")
	now := time.Now()

	if bookmarked {
		update := bson.M{"$pull": bson.M{"bookmarks": postID}, "$set": bson.M{"updatedAt": now}}
		if _, err := userColl.UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to update bookmarks",
			})
		}
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Post removed from bookmarks",
			Data:    map[string]string{"type": "unsaved"},
		})
	}

	update := bson.M{"$addToSet": bson.M{"bookmarks": postID}, "$set": bson.M{"updatedAt": now}}
	if _, err := userColl.UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update bookmarks",
		})
	}
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Post bookmarked successfully",
		Data:    map[string]string{"type": "saved"},
	})
}

// DeletePost handler removes a post and everything referencing it. Only
// the author may delete. The cascade is issued as independent writes;
// partial completion is tolerated, matching the store's per-document
// guarantee.
func (pc *PostController) DeletePost(c echo.Context) error {
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

	postID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid post ID",
		})
	}

	collection := config.GetCollection(pc.DB, "posts")

	var post models.Post
	err = collection.FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
	if err != nil {
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

	// Check if the user is the author of the post
	if post.Author != actingUserID {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "You are not authorized to delete this post",
		})
	}

	// Delete the post
	if _, err := collection.DeleteOne(ctx, bson.M{"_id": postID}); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to delete post",
		})
	}

	// Remove the post from the author's owned list
	if err := pc.userRepo.RemovePostRef(ctx, actingUserID, postID); err != nil {
		c.Logger().Errorf("Failed to remove post %s from author %s: %v",
			postID.Hex(), actingUserID.Hex(), err)
	}

	// Delete associated comments, replies included since they carry the
	// post reference
	commentColl := config.GetCollection(pc.DB, "comments")
	if _, err := commentColl.DeleteMany(ctx, bson.M{"post": postID}); err != nil {
		c.Logger().Errorf("Failed to delete comments of post %s: %v", postID.Hex(), err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Post deleted successfully",
	})
}
