package routes

import (
	"github.com/HSouheill/snapgram_backend/controllers"
	"github.com/HSouheill/snapgram_backend/middleware"
	"github.com/labstack/echo/v4"
)

// RegisterPostRoutes sets up all post, like, bookmark and comment routes
func RegisterPostRoutes(e *echo.Echo, postController *controllers.PostController, commentController *controllers.CommentController) {
	// Protected routes group
	r := e.Group("/api/v1/post")
	r.Use(middleware.JWTMiddleware())

	// Post routes
	r.POST("/addPost", postController.AddPost)
	r.GET("/all", postController.GetAllPosts)
	r.GET("/userpost/all", postController.GetUserPosts)
	r.DELETE("/delete/:id", postController.DeletePost)

	// Like and bookmark routes
	r.GET("/:id/like", postController.LikePost)
	r.GET("/:id/dislike", postController.DislikePost)
	r.GET("/:id/bookmark", postController.BookmarkPost)

	// Comment routes
	r.POST("/:id/comment", commentController.AddComment)
	r.POST("/:id/comment/all", commentController.GetComments)
	r.POST("/comment/:id/reply", commentController.AddReply)
	r.DELETE("/:id/comment/:commentId", commentController.DeleteComment)
}
