package routes

import (
	"github.com/HSouheill/snapgram_backend/controllers"
	"github.com/labstack/echo/v4"
)

// RegisterAuthRoutes sets up all authentication and public routes
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController) {
	// Public authentication routes
	e.POST("/api/v1/user/register", authController.Register)
	e.POST("/api/v1/user/login", authController.Login)
	e.GET("/api/v1/user/logout", authController.Logout)
	e.GET("/api/v1/user/validate-token", authController.ValidateToken)
}
