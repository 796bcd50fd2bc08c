package routes

import (
	"github.com/HSouheill/snapgram_backend/controllers"
	"github.com/HSouheill/snapgram_backend/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterUserRoutes sets up all user-related protected routes
func RegisterUserRoutes(e *echo.Echo, userController *controllers.UserController) {
	// Protected routes group
	r := e.Group("/api/v1/user")
	r.Use(middleware.JWTMiddleware())

	// Profile routes
	r.GET("/:id/profile", userController.GetProfile)
	r.POST("/profile/edit", userController.EditProfile)

	// Social graph routes
	r.GET("/suggested", userController.SuggestedUsers)
	r.POST("/followorunfollow/:id", userController.FollowOrUnfollow)
}
