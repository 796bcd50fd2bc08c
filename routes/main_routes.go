package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/HSouheill/snapgram_backend/controllers"
	"github.com/HSouheill/snapgram_backend/middleware"
	"github.com/HSouheill/snapgram_backend/repositories"
	"github.com/HSouheill/snapgram_backend/services"
)

// SetupRoutes configures all API routes by calling individual route registration functions
func SetupRoutes(e *echo.Echo, db *mongo.Client, assets *services.AssetService, metrics *middleware.Metrics) {
	userRepo := repositories.NewUserRepository(db)

	authController := controllers.NewAuthController(db, userRepo)
	userController := controllers.NewUserController(db, userRepo, assets, metrics)
	postController := controllers.NewPostController(db, userRepo, assets, metrics)
	commentController := controllers.NewCommentController(db)
	messageController := controllers.NewMessageController(db, metrics)

	// Register all route groups
	RegisterAuthRoutes(e, authController)
	RegisterUserRoutes(e, userController)
	RegisterPostRoutes(e, postController, commentController)
	RegisterMessageRoutes(e, messageController)
}
