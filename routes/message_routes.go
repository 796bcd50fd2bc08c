package routes

import (
	"github.com/HSouheill/snapgram_backend/controllers"
	"github.com/HSouheill/snapgram_backend/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterMessageRoutes sets up the pairwise messaging routes
func RegisterMessageRoutes(e *echo.Echo, messageController *controllers.MessageController) {
	// Protected routes group
	r := e.Group("/api/v1/message")
	r.Use(middleware.JWTMiddleware())

	r.POST("/:id", messageController.SendMessage)
	r.GET("/:id", messageController.GetMessages)
}
