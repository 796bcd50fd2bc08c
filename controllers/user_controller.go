// controllers/user_controller.go
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

// UserController contains profile and follow-graph logic
type UserController struct {
	DB       *mongo.Client
	userRepo *repositories.UserRepository
	assets   *services.AssetService
	metrics  *middleware.Metrics
}

// NewUserController creates a new user controller
func NewUserController(db *mongo.Client, userRepo *repositories.UserRepository, assets *services.AssetService, metrics *middleware.Metrics) *UserController {
	return &UserController{DB: db, userRepo: userRepo, assets: assets, metrics: metrics}
}

// GetProfile handler returns a user's profile with posts and bookmarks
// resolved
func (uc *UserController) GetProfile(c echo.Context) error {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	user, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find user",
		})
	}

	// Remove password from response
	user.Password = ""

	posts, err := uc.findPostsByIDs(ctx, user.Posts, true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve posts",
		})
	}

	bookmarks, err := uc.findPostsByIDs(ctx, user.Bookmarks, false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to resolve bookmarks",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile retrieved successfully",
		Data: models.ProfileView{
			User:      *user,
			Posts:     posts,
			Bookmarks: bookmarks,
		},
	})
}

// findPostsByIDs fetches posts by reference, optionally newest first
func (uc *UserController) findPostsByIDs(ctx context.Context, ids []primitive.ObjectID, sortByNewest bool) ([]models.Post, error) {
	posts := []models.Post{}
	if len(ids) == 0 {
		return posts, nil
	}

	findOptions := options.Find()
	if sortByNewest {
		findOptions.SetSort(bson.D{{Key: "createdAt", Value: -1}})
	}

	cursor, err := config.GetCollection(uc.DB, "posts").Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// EditProfile handler applies a partial profile update. Only supplied
// fields change; the picture goes through the image pipeline and the
// asset store.
func (uc *UserController) EditProfile(c echo.Context) error {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userID, err := utils.GetUserIDFromToken(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	set := bson.M{"updatedAt": time.Now()}

	if bio := c.FormValue("bio"); bio != "" {
		set["bio"] = utils.SanitizeInput(bio)
	}
	if gender := c.FormValue("gender"); gender != "" {
		set["gender"] = utils.SanitizeInput(gender)
	}

	// Optional profile picture upload
	pictureURL := ""
	if fileHeader, err := c.FormFile("profilePicture"); err == nil {
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

		pictureURL, err = uc.assets.Upload(ctx, processed, "image/jpeg", "profiles")
		if err != nil {
			c.Logger().Errorf("Profile picture upload failed: %v", err)
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to upload profile picture",
			})
		}
	}

	collection := config.GetCollection(uc.DB, "users")
	result, err := collection.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": set})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update profile",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	if pictureURL != "" {
		if err := uc.userRepo.UpdateProfilePicture(ctx, userID, pictureURL); err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to update profile",
			})
		}
	}

	// Return the updated user, credentials stripped
	user, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load updated profile",
		})
	}
	user.Password = ""

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Profile updated",
		Data:    user,
	})
}

// SuggestedUsers handler returns all users except the caller, credentials
// stripped
func (uc *UserController) SuggestedUsers(c echo.Context) error {
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

	collection := config.GetCollection(uc.DB, "users")
	findOptions := options.Find().SetProjection(bson.M{"password": 0})

	cursor, err := collection.Find(ctx, bson.M{"_id": bson.M{"$ne": userID}}, findOptions)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find users",
		})
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode users",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Suggested users retrieved successfully",
		Data:    users,
	})
}

// FollowOrUnfollow handler toggles the follow relation between the caller
// and the target. Both sides of the graph are updated; the two writes are
// independent single-document updates, so a crash between them can leave
// the sides briefly inconsistent.
func (uc *UserController) FollowOrUnfollow(c echo.Context) error {
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

	targetUserID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	if actingUserID == targetUserID {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "You cannot follow or unfollow yourself",
		})
	}

	actingUser, err := uc.userRepo.FindByID(ctx, actingUserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "User not found",
		})
	}
	if _, err := uc.userRepo.FindByID(ctx, targetUserID); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "User not found",
		})
	}

	isFollowing := false
	for _, id := range actingUser.Following {
		if id == targetUserID {
			isFollowing = true
			break
		}
	}

	collection := config.GetCollection(uc.DB, "users")
	now := time.Now()

	var op bson.M
	var message string
	if isFollowing {
		op = bson.M{"$pull": bson.M{"following": targetUserID}, "$set": bson.M{"updatedAt": now}}
		message = "Unfollowed successfully"
	} else {
		op = bson.M{"$addToSet": bson.M{"following": targetUserID}, "$set": bson.M{"updatedAt": now}}
		message = "Followed successfully"
	}

	if _, err := collection.UpdateOne(ctx, bson.M{"_id": actingUserID}, op); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update follow graph",
		})
	}

	if isFollowing {
		op = bson.M{"$pull": bson.M{"followers": actingUserID}, "$set": bson.M{"updatedAt": now}}
	} else {
		op = bson.M{"$addToSet": bson.M{"followers": actingUserID}, "$set": bson.M{"updatedAt": now}}
	}

	if _, err := collection.UpdateOne(ctx, bson.M{"_id": targetUserID}, op); err != nil {
		// One side has already been written; log so the gap is visible
		c.Logger().Errorf("Follow graph partially updated for %s -> %s: %v",
			actingUserID.Hex(), targetUserID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update follow graph",
		})
	}

	uc.metrics.FollowToggles.Inc()

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: message,
	})
}
